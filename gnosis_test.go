package gnosis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gnosis/ai/mock"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/navigate"
	"github.com/poiesic/gnosis/thesaurus"
)

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("",
		WithInMemory(),
		WithAIProvider(mock.NewMockProvider()),
		WithThesaurus(thesaurus.NewStatic(map[string]thesaurus.Entry{
			"decorator": {Synonyms: []string{"wrapper"}},
		})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *Database) {
	t.Helper()
	ctx := context.Background()
	embedder := db.Embedder()
	embed := func(text string) []float32 {
		vec, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		return vec
	}

	decorator := &core.Concept{
		Name:   "decorator pattern",
		Vector: embed("decorator pattern"),
	}
	_, err := db.ConceptRepository().AddConcepts(ctx, decorator)
	require.NoError(t, err)

	doc := &core.Document{
		Source:     "gof.pdf",
		Title:      "Design Patterns",
		Summary:    "Includes the decorator pattern.",
		Vector:     embed("design patterns"),
		ConceptIds: []core.ID{decorator.Id},
	}
	_, err = db.DocumentRepository().AddDocuments(ctx, doc)
	require.NoError(t, err)

	chunk := &core.Chunk{
		DocumentId: doc.Id,
		PageNumber: 3,
		Text:       "The decorator pattern wraps an object to add behavior.",
		ConceptIds: []core.ID{decorator.Id},
		Vector:     embed("The decorator pattern wraps an object to add behavior."),
	}
	chunk.Density = core.ComputeDensity(chunk.Text, 1)
	_, err = db.ChunkRepository().AddChunks(ctx, chunk)
	require.NoError(t, err)
}

func TestDatabase_RebuildAndQuery(t *testing.T) {
	db := openTestDatabase(t)
	seed(t, db)

	require.Nil(t, db.Snapshot())
	require.NoError(t, db.Rebuild(context.Background()))
	require.NotNil(t, db.Snapshot())

	engine, err := db.NewEngine()
	require.NoError(t, err)

	hits, err := engine.SearchDocuments(context.Background(), "decorator pattern")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Design Patterns", hits[0].Document.Title)
}

func TestDatabase_QueriesBeforeRebuildFail(t *testing.T) {
	db := openTestDatabase(t)

	engine, err := db.NewEngine()
	require.NoError(t, err)

	_, err = engine.SearchDocuments(context.Background(), "anything")
	assert.ErrorIs(t, err, navigate.ErrNotReady)
}

func TestDatabase_RebuildSwapsSnapshot(t *testing.T) {
	db := openTestDatabase(t)
	seed(t, db)
	ctx := context.Background()

	require.NoError(t, db.Rebuild(ctx))
	first := db.Snapshot()

	// new data only becomes visible after the next rebuild
	extra := &core.Concept{Name: "observer pattern"}
	_, err := db.ConceptRepository().AddConcepts(ctx, extra)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Snapshot().Caches.Concepts.Len())

	require.NoError(t, db.Rebuild(ctx))
	second := db.Snapshot()
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, second.Caches.Concepts.Len())
}

func TestDatabase_WithPostgresRoutesToPostgres(t *testing.T) {
	// A malformed DSN fails at pool construction, before any server
	// contact, which proves the option selects the postgres backend.
	_, err := NewDatabase("ignored-path",
		WithPostgres("://not-a-connection-string"),
		WithAIProvider(mock.NewMockProvider()),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
