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

// Package rank implements the scoring signals and their fusion into a single
// hybrid relevance score, plus adaptive gap clustering of ranked results.
package rank

import (
	"math"
	"strings"

	"github.com/poiesic/gnosis/expand"
	"github.com/poiesic/gnosis/index"
)

// Signal is one scoring dimension's value for a candidate. Invalid signals
// are excluded from fusion and their weight is redistributed.
type Signal struct {
	Value float64
	Valid bool
}

// Some wraps a computed signal value.
func Some(v float64) Signal {
	return Signal{Value: v, Valid: true}
}

// None is the absent signal.
func None() Signal {
	return Signal{}
}

// Signals gathers every scoring dimension for one candidate.
type Signals struct {
	Vector    Signal
	Keyword   Signal
	Literal   Signal
	Concept   Signal
	Thesaurus Signal
}

// VectorScore converts a cosine similarity into a [0,1] signal. Negative
// similarities are clamped to zero.
func VectorScore(similarity float64) Signal {
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}
	return Some(similarity)
}

// saturation constant for keyword term frequency, BM25-style
const keywordK1 = 1.2

// KeywordScorer computes saturated tf-idf keyword scores against a term
// index. Raw scores are unbounded; normalize them over the candidate set
// with NormalizeKeyword before fusion.
type KeywordScorer struct {
	idx *index.TermIndex
}

// NewKeywordScorer returns a scorer backed by the given term index.
func NewKeywordScorer(idx *index.TermIndex) *KeywordScorer {
	return &KeywordScorer{idx: idx}
}

// Score returns the raw weighted keyword score of text against the expansion
// terms. Each matching term contributes its expansion weight times the
// term's IDF times a saturated term-frequency factor.
func (s *KeywordScorer) Score(text string, terms []expand.Term) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}
	freq := make(map[string]int)
	for _, tok := range index.Tokenize(text) {
		freq[tok]++
	}
	var score float64
	for _, term := range terms {
		tf := freq[term.Text]
		if tf == 0 {
			continue
		}
		sat := float64(tf) * (keywordK1 + 1) / (float64(tf) + keywordK1)
		score += term.Weight * s.idx.IDF(term.Text) * sat
	}
	return score
}

// NormalizeKeyword rescales raw keyword scores into [0,1] relative to the
// strongest candidate. All-zero inputs stay zero.
func NormalizeKeyword(raw []float64) []Signal {
	var max float64
	for _, v := range raw {
		if v > max {
			max = v
		}
	}
	out := make([]Signal, len(raw))
	for i, v := range raw {
		if max == 0 {
			out[i] = Some(0)
			continue
		}
		out[i] = Some(v / max)
	}
	return out
}

// LiteralScore measures direct textual correspondence between a candidate
// name and the query. Exact normalized match and substring containment both
// score 1.0; partial token overlap scales with the matched fraction.
func LiteralScore(name, query string) Signal {
	name = strings.ToLower(strings.TrimSpace(name))
	query = strings.ToLower(strings.TrimSpace(query))
	if name == "" || query == "" {
		return Some(0)
	}
	if name == query {
		return Some(1.0)
	}
	if strings.Contains(query, name) || strings.Contains(name, query) {
		return Some(1.0)
	}
	nameTokens := index.Tokenize(name)
	queryTokens := index.Tokenize(query)
	if len(nameTokens) == 0 || len(queryTokens) == 0 {
		return Some(0)
	}
	inQuery := make(map[string]bool, len(queryTokens))
	for _, t := range queryTokens {
		inQuery[t] = true
	}
	matched := 0
	for _, t := range nameTokens {
		if inQuery[t] {
			matched++
		}
	}
	return Some(0.6 * float64(matched) / float64(len(nameTokens)))
}

// LiteralScoreAny scores the query against several surface forms, typically
// a canonical name plus its synonyms, and keeps the best.
func LiteralScoreAny(query string, names ...string) Signal {
	best := 0.0
	for _, name := range names {
		if s := LiteralScore(name, query); s.Value > best {
			best = s.Value
		}
	}
	return Some(best)
}

// OverlapScore returns the weighted fraction of terms for which present
// reports true. An empty term set scores zero.
func OverlapScore(terms []expand.Term, present func(term string) bool) Signal {
	if len(terms) == 0 {
		return Some(0)
	}
	var total, matched float64
	for _, t := range terms {
		total += t.Weight
		if present(t.Text) {
			matched += t.Weight
		}
	}
	if total == 0 {
		return Some(0)
	}
	return Some(matched / total)
}

// ConceptOverlap scores how well a candidate's tagged concepts cover the
// expansion terms.
func ConceptOverlap(exp *expand.Expansion, conceptNames map[string]bool) Signal {
	return OverlapScore(exp.Terms, func(term string) bool {
		if conceptNames[term] {
			return true
		}
		// multi-word concept names match when they contain the term
		for name := range conceptNames {
			if containsToken(name, term) {
				return true
			}
		}
		return false
	})
}

// ThesaurusOverlap scores the candidate text against only the
// thesaurus-contributed expansion terms. Absent when the expansion is
// degraded or the thesaurus contributed nothing.
func ThesaurusOverlap(exp *expand.Expansion, text string) Signal {
	terms := exp.ThesaurusTerms()
	if exp.Degraded || len(terms) == 0 {
		return None()
	}
	tokens := make(map[string]bool)
	for _, tok := range index.Tokenize(text) {
		tokens[tok] = true
	}
	return OverlapScore(terms, func(term string) bool {
		return tokens[term]
	})
}

func containsToken(name, term string) bool {
	for _, tok := range index.Tokenize(name) {
		if tok == term {
			return true
		}
	}
	return false
}

// CosineSimilarity computes the cosine of two vectors, zero when either is
// empty or zero-length.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
