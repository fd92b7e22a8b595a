package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
	"github.com/tharunjacob/firetrackspendz/internal/logger"
)

// DefaultModelName is the model used for schema resolution and statement
// extraction.
const DefaultModelName = "gemini-2.5-flash"

// Gemini implements SchemaOracle and StatementExtractor against the Gemini
// API. Credentials come from the environment (GEMINI_API_KEY).
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a client against the v1 API surface.
func NewGemini(ctx context.Context) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: create genai client: %w", err)
	}
	return &Gemini{client: client, model: DefaultModelName}, nil
}

// maxSampleRows bounds how much raw data ships with a prompt.
const maxSampleRows = 50

func (g *Gemini) MapColumns(ctx context.Context, headers []string, sampleRows [][]string) (*domain.FileMapping, error) {
	if len(sampleRows) > maxSampleRows {
		sampleRows = sampleRows[:maxSampleRows]
	}
	headerJSON, _ := json.Marshal(headers)
	rowsJSON, _ := json.Marshal(sampleRows)
	prompt := fmt.Sprintf(mapColumnsPrompt, headerJSON, len(sampleRows), rowsJSON)

	raw, err := g.generateText(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	var fm domain.FileMapping
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &fm); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("oracle returned unparseable mapping JSON")
		return nil, nil
	}
	if !fm.Valid() {
		return nil, nil
	}
	return &fm, nil
}

func (g *Gemini) DetectStructure(ctx context.Context, rawRows [][]string) (*Structure, error) {
	if len(rawRows) > maxSampleRows {
		rawRows = rawRows[:maxSampleRows]
	}
	rowsJSON, _ := json.Marshal(rawRows)
	prompt := fmt.Sprintf(detectStructurePrompt, len(rawRows), rowsJSON)

	raw, err := g.generateText(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	var st Structure
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &st); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("oracle returned unparseable structure JSON")
		return nil, nil
	}
	if st.HeaderIndex < 0 || !st.Mapping.Valid() {
		return nil, nil
	}
	return &st, nil
}

func (g *Gemini) ExtractStatement(ctx context.Context, pdf []byte) ([]domain.StatementRow, error) {
	raw, err := g.generateText(ctx, extractStatementPrompt, &genai.Blob{
		MIMEType: "application/pdf",
		Data:     pdf,
	})
	if err != nil {
		return nil, err
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &rows); err != nil {
		return nil, fmt.Errorf("oracle: unmarshal statement rows: %w", err)
	}

	out := make([]domain.StatementRow, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		out = append(out, domain.StatementRow{
			Date:        jsonString(row[0]),
			Description: jsonString(row[1]),
			RawAmount:   jsonString(row[2]),
			Type:        jsonString(row[3]),
			Category:    jsonString(row[4]),
		})
	}
	return out, nil
}

func (g *Gemini) generateText(ctx context.Context, prompt string, attachment *genai.Blob) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	if attachment != nil {
		parts = append(parts, &genai.Part{InlineData: attachment})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	var cfg *genai.GenerateContentConfig
	if attachment == nil {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("model", g.model).Int("prompt_len", len(prompt)).Msg("oracle request")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("oracle: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("oracle: empty response from model")
	}
	logResponse(log, text)
	return text, nil
}

func logResponse(log zerolog.Logger, text string) {
	preview := text
	if len(preview) > 200 {
		preview = preview[:200]
	}
	log.Debug().Int("response_len", len(text)).Str("preview", preview).Msg("oracle response")
}

// jsonString decodes a JSON scalar leniently: strings decode normally, any
// other token (numbers included) keeps its literal text.
func jsonString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// cleanModelJSON strips markdown fences and surrounding prose so the payload
// parses even when the model ignores the no-markdown instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if prose surrounds it. Whichever
	// opener appears first decides whether the payload is an object or array.
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	opener, closer := "{", "}"
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		opener, closer = "[", "]"
	}
	start := strings.Index(s, opener)
	end := strings.LastIndex(s, closer)
	if start != -1 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}
