package navigate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gnosis/ai/mock"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/index"
	"github.com/poiesic/gnosis/storage/badger"
	"github.com/poiesic/gnosis/taxonomy"
	"github.com/poiesic/gnosis/thesaurus"
	thmock "github.com/poiesic/gnosis/thesaurus/mock"
)

// fixedSnapshot serves one prebuilt snapshot.
type fixedSnapshot struct {
	snap *Snapshot
}

func (f *fixedSnapshot) Snapshot() *Snapshot { return f.snap }

// corpus is a small design-patterns fixture shared by the tests.
type corpus struct {
	store     *badger.MemoryStore
	snapshots SnapshotProvider
	navigator *Navigator
	decorator *core.Concept
	gof       *core.Document
}

func buildCorpus(t *testing.T) *corpus {
	t.Helper()
	ctx := context.Background()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	embedder := mock.NewMockEmbedder()
	embed := func(text string) []float32 {
		vec, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		return vec
	}

	composite := &core.Concept{
		Name:   "composite pattern",
		Vector: embed("composite pattern"),
	}
	decorator := &core.Concept{
		Name:     "decorator pattern",
		Synonyms: []string{"wrapper"},
		Vector:   embed("decorator pattern"),
	}
	_, err = store.Concepts.AddConcepts(ctx, composite)
	require.NoError(t, err)
	decorator.RelatedIds = []core.ID{composite.Id}
	_, err = store.Concepts.AddConcepts(ctx, decorator)
	require.NoError(t, err)

	gof := &core.Document{
		Source:     "gof.pdf",
		Title:      "Design Patterns",
		Vector:     embed("design patterns catalog"),
		ConceptIds: []core.ID{decorator.Id, composite.Id},
	}
	other := &core.Document{
		Source:     "composite-only.pdf",
		Title:      "Composite Structures",
		Vector:     embed("composite structures"),
		ConceptIds: []core.ID{composite.Id},
	}
	_, err = store.Documents.AddDocuments(ctx, gof, other)
	require.NoError(t, err)

	pages := []*core.Page{
		{DocumentId: gof.Id, Number: 3, ConceptIds: []core.ID{decorator.Id}},
		{DocumentId: gof.Id, Number: 7, ConceptIds: []core.ID{decorator.Id, composite.Id}},
	}
	_, err = store.Pages.AddPages(ctx, pages...)
	require.NoError(t, err)

	chunks := []*core.Chunk{
		{
			DocumentId: gof.Id,
			PageNumber: 3,
			Text:       "The decorator pattern attaches responsibilities dynamically.",
			ConceptIds: []core.ID{decorator.Id},
		},
		{
			DocumentId: gof.Id,
			PageNumber: 7,
			Text:       "A much longer passage that mentions the decorator pattern once among many other words about structure and composition in software design generally.",
			ConceptIds: []core.ID{decorator.Id},
		},
	}
	for _, c := range chunks {
		c.Density = core.ComputeDensity(c.Text, len(c.ConceptIds))
	}
	_, err = store.Chunks.AddChunks(ctx, chunks...)
	require.NoError(t, err)

	allChunks, err := store.Chunks.GetAllChunks(ctx)
	require.NoError(t, err)
	ix, err := index.Build(ctx, allChunks, 2, nil)
	require.NoError(t, err)
	allConcepts, err := store.Concepts.GetAllConcepts(ctx)
	require.NoError(t, err)
	caches := taxonomy.Build(allConcepts, nil, nil, nil)

	th := thesaurus.NewStatic(map[string]thesaurus.Entry{
		"decorator": {Synonyms: []string{"wrapper"}},
	})

	snapshots := &fixedSnapshot{snap: &Snapshot{Index: ix, Caches: caches}}
	nav, err := NewNavigator(
		store.Documents, store.Pages, store.Chunks, store.Concepts,
		mock.NewMockProvider(), th, snapshots,
	)
	require.NoError(t, err)

	return &corpus{store: store, snapshots: snapshots, navigator: nav, decorator: decorator, gof: gof}
}

func TestExplore_ResolvesAndAssembles(t *testing.T) {
	c := buildCorpus(t)

	answer, err := c.navigator.Explore(context.Background(), "decorator pattern")
	require.NoError(t, err)
	require.Equal(t, c.decorator.Id, answer.Concept.Id, "should resolve the decorator concept")
	assert.Greater(t, answer.Confidence, 0.0)
	require.Len(t, answer.Related, 1)
	assert.Equal(t, "composite pattern", answer.Related[0].Name)

	// primary source first, related source after
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, SourcePrimary, answer.Sources[0].Classification)
	assert.Equal(t, c.gof.Id, answer.Sources[0].Document.Id)
	assert.Equal(t, SourceRelated, answer.Sources[1].Classification)
	assert.Equal(t, "composite pattern", answer.Sources[1].ViaConcept)
	assert.Equal(t, []int{3, 7}, answer.Sources[0].Pages)

	// denser passage first
	require.Len(t, answer.Passages, 2)
	assert.Greater(t, answer.Passages[0].Density, answer.Passages[1].Density,
		"passages should be ordered by density")
	assert.Equal(t, 3, answer.Passages[0].Chunk.PageNumber,
		"densest passage should be the short page-3 chunk")
}

func TestExplore_ResolvesBySynonym(t *testing.T) {
	c := buildCorpus(t)

	answer, err := c.navigator.Explore(context.Background(), "wrapper")
	require.NoError(t, err)
	assert.Equal(t, c.decorator.Id, answer.Concept.Id, "should resolve decorator via its synonym")
}

func TestExplore_DegradedThesaurus(t *testing.T) {
	c := buildCorpus(t)

	nav, err := NewNavigator(
		c.store.Documents, c.store.Pages, c.store.Chunks, c.store.Concepts,
		mock.NewMockProvider(), thmock.Unavailable(), c.snapshots,
	)
	require.NoError(t, err)

	answer, err := nav.Explore(context.Background(), "decorator pattern")
	require.NoError(t, err, "thesaurus failure must not fail the query")
	assert.True(t, answer.Degraded)
	assert.Equal(t, c.decorator.Id, answer.Concept.Id, "corpus signals alone should still resolve")
	assert.NotEmpty(t, answer.Sources)
	assert.NotEmpty(t, answer.Passages)
}

func TestExplore_UnknownConcept(t *testing.T) {
	c := buildCorpus(t)

	_, err := c.navigator.Explore(context.Background(), "zzkqx unknowable thing")
	assert.True(t, core.IsNotFound(err), "err = %v, want not-found", err)
}

func TestExplore_SourceFilter(t *testing.T) {
	c := buildCorpus(t)

	answer, err := c.navigator.Explore(context.Background(), "decorator pattern",
		WithSourceFilter("composite structures"))
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Composite Structures", answer.Sources[0].Document.Title)
}

func TestExplore_EmptyQuery(t *testing.T) {
	c := buildCorpus(t)

	_, err := c.navigator.Explore(context.Background(), "")
	var ve *core.ValidationError
	assert.ErrorAs(t, err, &ve)
}
