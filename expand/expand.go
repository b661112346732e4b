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

// Package expand turns a raw query into a weighted set of expansion terms by
// blending corpus co-occurrence statistics with thesaurus relations.
package expand

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/poiesic/gnosis/index"
	"github.com/poiesic/gnosis/thesaurus"
)

// Source records where an expansion term came from.
type Source int

const (
	SourceQuery Source = iota
	SourceCorpus
	SourceThesaurus
)

// Mode selects the expansion balance. Corpus mode favors vocabulary actually
// present in the indexed corpus; general mode draws more from the thesaurus.
type Mode int

const (
	ModeCorpus Mode = iota
	ModeGeneral
)

// Term is a single expansion term with its blended weight.
type Term struct {
	Text   string
	Weight float64
	Source Source
}

// Expansion is the full result of expanding one query.
type Expansion struct {
	// Tokens are the significant query tokens, each carried as a Term with
	// weight 1.0 in Terms as well.
	Tokens []string
	// Terms holds query tokens plus expansion terms, weight descending,
	// lexical on ties.
	Terms []Term
	// Degraded is set when the thesaurus was unavailable and the result is
	// corpus-only.
	Degraded bool
}

// ThesaurusTerms returns only the terms contributed by the thesaurus.
func (e *Expansion) ThesaurusTerms() []Term {
	out := make([]Term, 0, len(e.Terms))
	for _, t := range e.Terms {
		if t.Source == SourceThesaurus {
			out = append(out, t)
		}
	}
	return out
}

// TermTexts returns the texts of all terms in ranked order.
func (e *Expansion) TermTexts() []string {
	out := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		out[i] = t.Text
	}
	return out
}

const (
	defaultCorpusWeight    = 0.7
	defaultThesaurusWeight = 0.3
	defaultMinWeight       = 0.05
	defaultCorpusPerToken  = 8
	defaultGeneralPerToken = 5
)

// Expander blends corpus and thesaurus expansion for queries.
type Expander struct {
	idx             *index.TermIndex
	th              thesaurus.Thesaurus
	logger          *slog.Logger
	corpusWeight    float64
	thesaurusWeight float64
	minWeight       float64
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets the logger used for expansion diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) { e.logger = logger }
}

// WithBlend overrides the corpus/thesaurus weight split.
func WithBlend(corpus, thes float64) Option {
	return func(e *Expander) {
		e.corpusWeight = corpus
		e.thesaurusWeight = thes
	}
}

// WithMinWeight sets the weight floor below which expansion terms are
// discarded.
func WithMinWeight(min float64) Option {
	return func(e *Expander) { e.minWeight = min }
}

// NewExpander creates an Expander over a term index and an optional
// thesaurus. A nil thesaurus yields corpus-only (degraded) expansions.
func NewExpander(idx *index.TermIndex, th thesaurus.Thesaurus, opts ...Option) (*Expander, error) {
	if idx == nil {
		return nil, errors.New("expander requires a term index")
	}
	e := &Expander{
		idx:             idx,
		th:              th,
		logger:          slog.Default(),
		corpusWeight:    defaultCorpusWeight,
		thesaurusWeight: defaultThesaurusWeight,
		minWeight:       defaultMinWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Expand produces the weighted expansion of a query. Thesaurus failures are
// absorbed: the result is marked Degraded and the corpus weight takes over
// the full blend.
func (e *Expander) Expand(ctx context.Context, query string, mode Mode) (*Expansion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := index.SignificantTokens(query)
	result := &Expansion{Tokens: tokens}
	if len(tokens) == 0 {
		return result, nil
	}

	perToken := defaultGeneralPerToken
	if mode == ModeCorpus {
		perToken = defaultCorpusPerToken
	}

	// best weight per candidate text; query tokens always win
	best := make(map[string]Term, len(tokens)*perToken)
	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
		best[tok] = Term{Text: tok, Weight: 1.0, Source: SourceQuery}
	}

	corpusWeight := e.corpusWeight
	thesWeight := e.thesaurusWeight
	if e.th == nil {
		result.Degraded = true
		corpusWeight = 1.0
		thesWeight = 0
	}

	for _, tok := range tokens {
		df := e.idx.DocFreq(tok)
		for _, cand := range e.idx.CoOccurring(tok, perToken) {
			if tokenSet[cand.Term] || index.IsStopWord(cand.Term) {
				continue
			}
			relevance := 1.0
			if df > 0 {
				relevance = float64(cand.Count) / float64(df)
			}
			if relevance > 1.0 {
				relevance = 1.0
			}
			e.consider(best, Term{
				Text:   cand.Term,
				Weight: corpusWeight * relevance,
				Source: SourceCorpus,
			})
		}
	}

	if thesWeight > 0 {
		for _, tok := range tokens {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			entry, err := e.th.Lookup(ctx, tok)
			if errors.Is(err, thesaurus.ErrUnavailable) {
				e.logger.Warn("thesaurus unavailable, degrading to corpus-only expansion", "token", tok)
				result.Degraded = true
				break
			}
			if err != nil {
				// unknown terms simply contribute nothing
				continue
			}
			e.considerThesaurus(best, tokenSet, entry.Synonyms, thesWeight*1.0)
			e.considerThesaurus(best, tokenSet, entry.BroaderTerms, thesWeight*0.7)
			e.considerThesaurus(best, tokenSet, entry.NarrowerTerms, thesWeight*0.7)
		}
	}

	// when degradation happened after corpus weighting, let the corpus
	// weight take over the whole blend and drop any thesaurus terms
	// gathered before the failure: a degraded result is corpus-only
	if result.Degraded && corpusWeight < 1.0 {
		for text, t := range best {
			switch t.Source {
			case SourceCorpus:
				t.Weight /= corpusWeight
				best[text] = t
			case SourceThesaurus:
				delete(best, text)
			}
		}
	}

	terms := make([]Term, 0, len(best))
	for _, t := range best {
		if t.Source != SourceQuery && t.Weight < e.minWeight {
			continue
		}
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Text < terms[j].Text
	})
	result.Terms = terms

	e.logger.Debug("query expanded",
		"tokens", len(tokens),
		"terms", len(terms),
		"degraded", result.Degraded)
	return result, nil
}

// consider keeps the highest-weight occurrence of a candidate term. Query
// tokens are never displaced.
func (e *Expander) consider(best map[string]Term, t Term) {
	existing, ok := best[t.Text]
	if ok && (existing.Source == SourceQuery || existing.Weight >= t.Weight) {
		return
	}
	best[t.Text] = t
}

// considerThesaurus normalizes multi-word thesaurus phrases into tokens and
// offers each as a candidate.
func (e *Expander) considerThesaurus(best map[string]Term, tokenSet map[string]bool, phrases []string, weight float64) {
	for _, phrase := range phrases {
		for _, tok := range index.SignificantTokens(phrase) {
			if tokenSet[tok] {
				continue
			}
			e.consider(best, Term{Text: tok, Weight: weight, Source: SourceThesaurus})
		}
	}
}
