package oracle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"dateColumn":"Date"}`,
			want: `{"dateColumn":"Date"}`,
		},
		{
			name: "fenced object",
			raw:  "```json\n{\"dateColumn\":\"Date\"}\n```",
			want: `{"dateColumn":"Date"}`,
		},
		{
			name: "fence without language tag",
			raw:  "```\n{\"dateColumn\":\"Date\"}\n```",
			want: `{"dateColumn":"Date"}`,
		},
		{
			name: "prose around object",
			raw:  "Here is the mapping you asked for: {\"dateColumn\":\"Date\"} Hope that helps!",
			want: `{"dateColumn":"Date"}`,
		},
		{
			name: "fenced array of rows",
			raw:  "```json\n[[\"2024-05-01\",\"coffee\",\"100\",\"Expense\",\"Food\"]]\n```",
			want: `[["2024-05-01","coffee","100","Expense","Food"]]`,
		},
		{
			name: "array containing objects is not truncated",
			raw:  `[{"a":1},{"b":2}]`,
			want: `[{"a":1},{"b":2}]`,
		},
		{
			name: "object containing arrays is not truncated",
			raw:  `{"headerIndex":3,"rows":[1,2]}`,
			want: `{"headerIndex":3,"rows":[1,2]}`,
		},
		{
			name: "no json at all passes through",
			raw:  "I could not determine the mapping.",
			want: "I could not determine the mapping.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}

func TestCleanModelJSONParses(t *testing.T) {
	raw := "```json\n{\"dateColumn\": \"Txn Date\", \"amountColumn\": \"Amount\", \"isCreditDebitSeparate\": false}\n```"
	var m map[string]any
	assert.NoError(t, json.Unmarshal([]byte(cleanModelJSON(raw)), &m))
	assert.Equal(t, "Txn Date", m["dateColumn"])
}

func TestJSONString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "quoted string", raw: `"coffee shop"`, want: "coffee shop"},
		{name: "escaped string", raw: `"a \"quoted\" note"`, want: `a "quoted" note`},
		{name: "number keeps literal text", raw: `120.50`, want: "120.50"},
		{name: "negative number", raw: `-45`, want: "-45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jsonString(json.RawMessage(tt.raw)))
		})
	}
}
