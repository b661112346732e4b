package expand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/index"
	"github.com/poiesic/gnosis/thesaurus"
	thmock "github.com/poiesic/gnosis/thesaurus/mock"
)

func buildIndex(t *testing.T, texts ...string) *index.TermIndex {
	t.Helper()
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{Id: core.IDFromContent(text), Text: text}
	}
	ix, err := index.Build(context.Background(), chunks, 2, nil)
	require.NoError(t, err)
	return ix
}

func TestExpand_CorpusTermsDominate(t *testing.T) {
	ix := buildIndex(t,
		"decorator pattern wraps objects transparently",
		"decorator pattern composes wrappers",
		"decorator wraps the inner component",
	)
	th := thesaurus.NewStatic(map[string]thesaurus.Entry{
		"decorator": {Synonyms: []string{"adorner"}},
	})
	e, err := NewExpander(ix, th)
	require.NoError(t, err)

	exp, err := e.Expand(context.Background(), "decorator", ModeGeneral)
	require.NoError(t, err)
	assert.False(t, exp.Degraded)
	assert.Equal(t, []string{"decorator"}, exp.Tokens)

	weights := make(map[string]float64)
	sources := make(map[string]Source)
	for _, term := range exp.Terms {
		weights[term.Text] = term.Weight
		sources[term.Text] = term.Source
	}
	// query token carries full weight
	assert.Equal(t, 1.0, weights["decorator"])
	assert.Equal(t, SourceQuery, sources["decorator"])
	// "pattern" and "wraps" each co-occur in 2 of 3 decorator chunks
	assert.InDelta(t, 0.7*2.0/3.0, weights["pattern"], 1e-9)
	assert.Equal(t, SourceCorpus, sources["pattern"])
	// synonym arrives at the thesaurus weight, below the strong corpus terms
	assert.InDelta(t, 0.3, weights["adorner"], 1e-9)
	assert.Equal(t, SourceThesaurus, sources["adorner"])
	assert.Greater(t, weights["pattern"], weights["adorner"])
}

func TestExpand_Deterministic(t *testing.T) {
	ix := buildIndex(t,
		"cache eviction policy",
		"cache invalidation policy",
	)
	e, err := NewExpander(ix, nil)
	require.NoError(t, err)

	first, err := e.Expand(context.Background(), "cache policy", ModeCorpus)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Expand(context.Background(), "cache policy", ModeCorpus)
		require.NoError(t, err)
		assert.Equal(t, first.Terms, again.Terms)
	}
}

func TestExpand_DegradesWhenThesaurusUnavailable(t *testing.T) {
	ix := buildIndex(t, "decorator pattern wraps objects")
	e, err := NewExpander(ix, thmock.Unavailable())
	require.NoError(t, err)

	exp, err := e.Expand(context.Background(), "decorator", ModeGeneral)
	require.NoError(t, err)
	assert.True(t, exp.Degraded)
	assert.Empty(t, exp.ThesaurusTerms())
	// corpus terms are still present
	assert.Contains(t, exp.TermTexts(), "pattern")
}

func TestExpand_MidQueryDegradationDropsThesaurusTerms(t *testing.T) {
	ix := buildIndex(t,
		"decorator composition wraps objects",
		"decorator composition layers behavior",
	)
	// first token resolves, the thesaurus dies before the second
	th := &thmock.Thesaurus{
		LookupFunc: func(_ context.Context, term string) (*thesaurus.Entry, error) {
			if term == "decorator" {
				return &thesaurus.Entry{Synonyms: []string{"adorner"}}, nil
			}
			return nil, thesaurus.ErrUnavailable
		},
	}
	e, err := NewExpander(ix, th)
	require.NoError(t, err)

	exp, err := e.Expand(context.Background(), "decorator composition", ModeGeneral)
	require.NoError(t, err)
	assert.True(t, exp.Degraded)
	assert.Empty(t, exp.ThesaurusTerms(), "terms gathered before the failure must not survive")
	assert.NotContains(t, exp.TermTexts(), "adorner")

	// corpus terms are rescaled to the full blend
	for _, term := range exp.Terms {
		if term.Text == "wraps" {
			assert.InDelta(t, 0.5, term.Weight, 1e-9) // co-occurs in 1 of 2 chunks
		}
	}
}

func TestExpand_EmptyQuery(t *testing.T) {
	ix := buildIndex(t, "some text here")
	e, err := NewExpander(ix, nil)
	require.NoError(t, err)

	exp, err := e.Expand(context.Background(), "the a of", ModeGeneral)
	require.NoError(t, err)
	assert.Empty(t, exp.Tokens)
	assert.Empty(t, exp.Terms)
}
