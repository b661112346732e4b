// Package mock provides a configurable Thesaurus for tests.
package mock

import (
	"context"

	"github.com/poiesic/gnosis/thesaurus"
)

// Thesaurus delegates Lookup to a function field, defaulting to
// ErrTermNotFound when unset.
type Thesaurus struct {
	LookupFunc func(ctx context.Context, term string) (*thesaurus.Entry, error)
}

func (m *Thesaurus) Lookup(ctx context.Context, term string) (*thesaurus.Entry, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, term)
	}
	return nil, thesaurus.ErrTermNotFound
}

// Unavailable returns a thesaurus whose every lookup fails with
// ErrUnavailable, for exercising degraded expansion.
func Unavailable() *Thesaurus {
	return &Thesaurus{
		LookupFunc: func(ctx context.Context, term string) (*thesaurus.Entry, error) {
			return nil, thesaurus.ErrUnavailable
		},
	}
}
