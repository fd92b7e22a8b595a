// Package mapping persists successful column mappings keyed by header
// signature, so a file shape is resolved once and recognized forever after.
package mapping

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

// Signature derives the cache key for a header set: sorted, trimmed,
// lowercased column names joined by "|". Column order is irrelevant by
// construction. Empty headers yield the empty signature, which is never
// cached.
func Signature(headers []string) string {
	if len(headers) == 0 {
		return ""
	}
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "|")
}

// Repository stores learned mappings. Lookup returns (nil, nil) on a miss;
// Store is last-write-wins.
type Repository interface {
	Lookup(ctx context.Context, signature string) (*domain.FileMapping, error)
	Store(ctx context.Context, signature string, m domain.FileMapping) error
}

// Memory is an in-process Repository for tests and cache-less runs.
type Memory struct {
	mu       sync.Mutex
	mappings map[string]domain.FileMapping
}

func NewMemory() *Memory {
	return &Memory{mappings: make(map[string]domain.FileMapping)}
}

func (m *Memory) Lookup(_ context.Context, signature string) (*domain.FileMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fm, ok := m.mappings[signature]; ok {
		return &fm, nil
	}
	return nil, nil
}

func (m *Memory) Store(_ context.Context, signature string, fm domain.FileMapping) error {
	if signature == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[signature] = fm
	return nil
}
