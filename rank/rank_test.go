package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/expand"
	"github.com/poiesic/gnosis/index"
)

func TestClusterByGap(t *testing.T) {
	tests := []struct {
		name      string
		scores    []float64
		threshold float64
		want      int
	}{
		{"clear break", []float64{0.97, 0.95, 0.40, 0.38}, 0.4, 2},
		{"no break", []float64{0.9, 0.85, 0.8, 0.78}, 0.4, 4},
		{"single result", []float64{0.5}, 0.4, 1},
		{"empty", nil, 0.4, 0},
		{"nonpositive excluded", []float64{0.9, 0.0, -0.1}, 0.4, 1},
		{"break at first gap", []float64{1.0, 0.5, 0.45}, 0.4, 1},
		{"bad threshold uses default", []float64{0.97, 0.95, 0.40}, 7.0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClusterByGap(tt.scores, tt.threshold))
		})
	}
}

func TestFuse_RenormalizesOverAvailableSignals(t *testing.T) {
	full := Signals{
		Vector:    Some(0.8),
		Keyword:   Some(0.6),
		Literal:   Some(1.0),
		Concept:   Some(0.5),
		Thesaurus: Some(0.4),
	}
	score, bd := DocumentDiscoveryProfile.Fuse(full)
	want := 0.30*0.8 + 0.25*0.6 + 0.20*1.0 + 0.15*0.5 + 0.10*0.4
	assert.InDelta(t, want, score, 1e-9)
	assert.NotNil(t, bd.Vector)
	assert.InDelta(t, want, bd.Hybrid, 1e-9)

	// drop the vector signal: remaining weights renormalize to sum 1
	partial := full
	partial.Vector = None()
	score, bd = DocumentDiscoveryProfile.Fuse(partial)
	rest := 0.25 + 0.20 + 0.15 + 0.10
	want = (0.25*0.6 + 0.20*1.0 + 0.15*0.5 + 0.10*0.4) / rest
	assert.InDelta(t, want, score, 1e-9)
	assert.Nil(t, bd.Vector)
}

func TestFuse_ProfileIgnoresUnweightedSignals(t *testing.T) {
	s := Signals{
		Vector:  Some(0.5),
		Keyword: Some(0.5),
		Literal: Some(1.0), // passage profile has no literal weight
	}
	score, bd := PassageProfile.Fuse(s)
	assert.InDelta(t, 0.5, score, 1e-9)
	assert.Nil(t, bd.Literal)
}

func TestFuse_NoSignals(t *testing.T) {
	score, _ := PassageProfile.Fuse(Signals{})
	assert.Zero(t, score)
}

func TestLiteralScore(t *testing.T) {
	assert.InDelta(t, 1.0, LiteralScore("Decorator Pattern", "decorator pattern").Value, 1e-9)
	assert.InDelta(t, 1.0, LiteralScore("decorator", "the decorator pattern").Value, 1e-9)
	assert.InDelta(t, 1.0, LiteralScore("decorator pattern", "the decorator pattern explained").Value, 1e-9)
	partial := LiteralScore("decorator pattern", "pattern languages").Value
	assert.InDelta(t, 0.3, partial, 1e-9) // one of two name tokens matched
	assert.Zero(t, LiteralScore("singleton", "decorator").Value)
}

func TestLiteralScoreAny_TakesBestSurface(t *testing.T) {
	sig := LiteralScoreAny("wrapper", "decorator pattern", "wrapper")
	assert.InDelta(t, 1.0, sig.Value, 1e-9)
	assert.Zero(t, LiteralScoreAny("wrapper").Value)
}

func TestKeywordScorer(t *testing.T) {
	chunks := []*core.Chunk{
		{Id: 1, Text: "decorator pattern wraps objects"},
		{Id: 2, Text: "observer pattern notifies listeners"},
		{Id: 3, Text: "builder constructs complex objects"},
	}
	ix, err := index.Build(context.Background(), chunks, 1, nil)
	require.NoError(t, err)

	scorer := NewKeywordScorer(ix)
	terms := []expand.Term{
		{Text: "decorator", Weight: 1.0},
		{Text: "pattern", Weight: 1.0},
	}
	hit := scorer.Score("the decorator pattern in depth", terms)
	miss := scorer.Score("builder constructs things", terms)
	partialHit := scorer.Score("pattern languages", terms)
	assert.Greater(t, hit, partialHit)
	assert.Greater(t, partialHit, miss)
	assert.Zero(t, miss)

	norm := NormalizeKeyword([]float64{hit, partialHit, miss})
	assert.InDelta(t, 1.0, norm[0].Value, 1e-9)
	assert.Zero(t, norm[2].Value)
}

func TestThesaurusOverlap_AbsentWhenDegraded(t *testing.T) {
	exp := &expand.Expansion{Degraded: true}
	assert.False(t, ThesaurusOverlap(exp, "anything").Valid)

	exp = &expand.Expansion{
		Terms: []expand.Term{
			{Text: "wrapper", Weight: 0.3, Source: expand.SourceThesaurus},
			{Text: "decorator", Weight: 1.0, Source: expand.SourceQuery},
		},
	}
	sig := ThesaurusOverlap(exp, "a wrapper around the component")
	require.True(t, sig.Valid)
	assert.InDelta(t, 1.0, sig.Value, 1e-9)
}

func TestConceptOverlap(t *testing.T) {
	exp := &expand.Expansion{
		Terms: []expand.Term{
			{Text: "decorator", Weight: 1.0},
			{Text: "wrapper", Weight: 0.5},
		},
	}
	names := map[string]bool{"decorator pattern": true}
	sig := ConceptOverlap(exp, names)
	require.True(t, sig.Valid)
	// only "decorator" matches, weighted 1.0 of 1.5 total
	assert.InDelta(t, 1.0/1.5, sig.Value, 1e-9)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Zero(t, CosineSimilarity(nil, []float32{1}))
}
