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

// Package index builds an in-memory term index over the chunk corpus. The
// index records document frequencies and term co-occurrence and backs both
// corpus-driven query expansion and keyword scoring.
package index

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/gnosis/core"
)

// TermCount pairs a term with the number of chunks it shares with some
// reference term.
type TermCount struct {
	Term  string
	Count int
}

// TermIndex is an immutable snapshot of corpus term statistics. Build a new
// one and swap it in rather than mutating a live index.
type TermIndex struct {
	docFreq     map[string]int
	coOccur     map[string]map[string]int
	totalChunks int
}

// chunkTokens is the per-chunk tokenization result produced by pool workers.
type chunkTokens struct {
	tokens []string
}

// Build tokenizes every chunk on a worker pool and merges the per-chunk
// statistics into a fresh TermIndex.
func Build(ctx context.Context, chunks []*core.Chunk, workers int, logger *slog.Logger) (*TermIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 4
	}

	ix := &TermIndex{
		docFreq:     make(map[string]int),
		coOccur:     make(map[string]map[string]int),
		totalChunks: len(chunks),
	}
	if len(chunks) == 0 {
		return ix, nil
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]chunkTokens, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		i, chunk := i, chunk
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = chunkTokens{tokens: uniqueTokens(chunk.Text)}
		})
		if submitErr != nil {
			wg.Done()
			return nil, submitErr
		}
	}
	wg.Wait()

	for _, res := range results {
		ix.merge(res.tokens)
	}

	logger.Debug("term index built",
		"chunks", ix.totalChunks,
		"terms", len(ix.docFreq))
	return ix, nil
}

// merge folds one chunk's distinct token set into the index counters.
func (ix *TermIndex) merge(tokens []string) {
	for _, t := range tokens {
		ix.docFreq[t]++
	}
	for i, a := range tokens {
		for j, b := range tokens {
			if i == j {
				continue
			}
			m := ix.coOccur[a]
			if m == nil {
				m = make(map[string]int)
				ix.coOccur[a] = m
			}
			m[b]++
		}
	}
}

// uniqueTokens returns the sorted distinct significant tokens of text.
func uniqueTokens(text string) []string {
	seen := make(map[string]bool)
	for _, t := range SignificantTokens(text) {
		seen[t] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TotalChunks returns the number of chunks the index was built over.
func (ix *TermIndex) TotalChunks() int {
	return ix.totalChunks
}

// DocFreq returns the number of chunks containing the term.
func (ix *TermIndex) DocFreq(term string) int {
	return ix.docFreq[term]
}

// IDF returns the smoothed inverse document frequency of a term. Unknown
// terms get the maximum IDF for the corpus size.
func (ix *TermIndex) IDF(term string) float64 {
	if ix.totalChunks == 0 {
		return 0
	}
	df := ix.docFreq[term]
	return math.Log(1 + float64(ix.totalChunks)/float64(df+1))
}

// CoOccurring returns up to limit terms that co-occur with the given term,
// ordered by shared-chunk count descending, then lexically for determinism.
func (ix *TermIndex) CoOccurring(term string, limit int) []TermCount {
	m := ix.coOccur[term]
	if len(m) == 0 {
		return nil
	}
	out := make([]TermCount, 0, len(m))
	for t, n := range m {
		out = append(out, TermCount{Term: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
