// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package thesaurus provides lexical relations (synonyms, broader and
// narrower terms) used as a secondary signal during query expansion. The
// engine treats the thesaurus as optional: lookups may fail with
// ErrUnavailable and callers degrade to corpus-only expansion.
package thesaurus

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the thesaurus backend cannot serve lookups right
// now. Callers should degrade rather than fail the query.
var ErrUnavailable = errors.New("thesaurus unavailable")

// ErrTermNotFound indicates the term has no thesaurus entry.
var ErrTermNotFound = errors.New("term not found in thesaurus")

// Entry holds the lexical relations of a single term.
type Entry struct {
	Synonyms      []string `json:"synonyms,omitempty"`
	BroaderTerms  []string `json:"broader_terms,omitempty"`
	NarrowerTerms []string `json:"narrower_terms,omitempty"`
}

// Thesaurus resolves a term to its lexical relations.
type Thesaurus interface {
	Lookup(ctx context.Context, term string) (*Entry, error)
}
