package reembed

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/poiesic/gnosis/ai/mock"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage/badger"
)

func seedStore(t *testing.T, store *badger.MemoryStore) (docID core.ID, chunkIDs []core.ID) {
	t.Helper()
	ctx := context.Background()

	docs, err := store.Documents.AddDocuments(ctx, &core.Document{
		Source:  "books/old-embeddings.pdf",
		Title:   "Old Embeddings",
		Summary: "a document embedded with a retired model",
		Vector:  []float32{1, 0, 0},
	})
	require.NoError(t, err)

	chunks, err := store.Chunks.AddChunks(ctx,
		&core.Chunk{DocumentId: docs[0].Id, PageNumber: 1, Text: "first passage", Vector: []float32{1, 0, 0}},
		&core.Chunk{DocumentId: docs[0].Id, PageNumber: 2, Text: "second passage", Vector: []float32{0, 1, 0}},
	)
	require.NoError(t, err)

	_, err = store.Concepts.AddConcepts(ctx, &core.Concept{
		Name:   "embedding drift",
		Vector: []float32{0, 0, 1},
		Weight: 1,
	})
	require.NoError(t, err)

	ids := make([]core.ID, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.Id
	}
	return docs[0].Id, ids
}

func TestReembedder_Run(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	docID, chunkIDs := seedStore(t, store)

	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{2, 0, 0, 0} // not unit length on purpose
		}
		return out, nil
	}

	r, err := NewReembedder(store.Documents, store.Chunks, store.Concepts, embedder,
		&Config{BatchSize: 1, ReportInterval: 1, MaxRetries: 2, RetryDelay: time.Millisecond}, io.Discard)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.Run(ctx))

	doc, err := store.Documents.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, doc.Vector, "stored vector should be normalized")
	assert.Equal(t, "Old Embeddings", doc.Title, "non-vector fields should be untouched")

	for _, id := range chunkIDs {
		chunk, err := store.Chunks.GetChunk(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0, 0}, chunk.Vector)
	}

	concepts, err := store.Concepts.GetAllConcepts(ctx)
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, []float32{1, 0, 0, 0}, concepts[0].Vector)
}

func TestReembedder_RetriesTransientFailures(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	seedStore(t, store)

	calls := 0
	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("embedding service hiccup")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0, 1}
		}
		return out, nil
	}

	r, err := NewReembedder(store.Documents, store.Chunks, store.Concepts, embedder,
		&Config{BatchSize: 10, ReportInterval: 10, MaxRetries: 3, RetryDelay: time.Millisecond}, io.Discard)
	require.NoError(t, err)

	require.NoError(t, r.ReembedDocuments(context.Background()))
	assert.Equal(t, 2, calls, "first failure should be retried")
}

func TestReembedder_PersistentFailure(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	seedStore(t, store)

	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	r, err := NewReembedder(store.Documents, store.Chunks, store.Concepts, embedder,
		&Config{BatchSize: 10, ReportInterval: 10, MaxRetries: 2, RetryDelay: time.Millisecond}, io.Discard)
	require.NoError(t, err)

	err = r.ReembedChunks(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestNewReembedder_Validation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewReembedder(store.Documents, store.Chunks, store.Concepts, nil, nil, io.Discard)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewReembedder(nil, store.Chunks, store.Concepts, aimock.NewMockEmbedder(), nil, io.Discard)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}
