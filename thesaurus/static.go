package thesaurus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/poiesic/gnosis/core"
)

// static serves lookups from an in-memory map keyed by normalized term.
type static struct {
	entries map[string]Entry
}

// NewStatic creates a thesaurus over a fixed entry map. Keys are normalized
// the same way concept names are.
func NewStatic(entries map[string]Entry) Thesaurus {
	normalized := make(map[string]Entry, len(entries))
	for term, entry := range entries {
		normalized[core.NormalizeName(term)] = entry
	}
	return &static{entries: normalized}
}

// LoadFile reads a JSON file mapping terms to entries and returns a static
// thesaurus over it.
func LoadFile(path string) (Thesaurus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading thesaurus file: %w", err)
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing thesaurus file %s: %w", path, err)
	}
	return NewStatic(entries), nil
}

func (s *static) Lookup(ctx context.Context, term string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := s.entries[core.NormalizeName(term)]
	if !ok {
		return nil, ErrTermNotFound
	}
	return &entry, nil
}
