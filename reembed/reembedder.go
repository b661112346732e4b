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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/gnosis/ai"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of items to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed
	// embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates stored embeddings for documents, passages and
// concepts. Items keep their identity; only the Vector field changes, so a
// subsequent index rebuild picks up the new vectors without re-ingestion.
type Reembedder struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	concepts  storage.ConceptRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	concepts storage.ConceptRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) (*Reembedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if documents == nil || chunks == nil || concepts == nil {
		return nil, ErrRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}

	return &Reembedder{
		documents: documents,
		chunks:    chunks,
		concepts:  concepts,
		embedder:  embedder,
		config:    config,
		progress:  progress,
	}, nil
}

// Run reembeds documents, then passages, then concepts.
func (r *Reembedder) Run(ctx context.Context) error {
	if err := r.ReembedDocuments(ctx); err != nil {
		return err
	}
	if err := r.ReembedChunks(ctx); err != nil {
		return err
	}
	return r.ReembedConcepts(ctx)
}

// ReembedDocuments regenerates the summary embedding of every document.
func (r *Reembedder) ReembedDocuments(ctx context.Context) error {
	docs, err := r.documents.GetAllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}

	return runPass(ctx, r, "documents", docs,
		func(doc *core.Document) string { return doc.Summary },
		func(doc *core.Document, vector []float32) { doc.Vector = vector },
		func(ctx context.Context, batch []*core.Document) error {
			_, err := r.documents.AddDocuments(ctx, batch...)
			return err
		})
}

// ReembedChunks regenerates the embedding of every text passage.
func (r *Reembedder) ReembedChunks(ctx context.Context) error {
	chunks, err := r.chunks.GetAllChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to query passages: %w", err)
	}

	return runPass(ctx, r, "passages", chunks,
		func(chunk *core.Chunk) string { return chunk.Text },
		func(chunk *core.Chunk, vector []float32) { chunk.Vector = vector },
		func(ctx context.Context, batch []*core.Chunk) error {
			_, err := r.chunks.AddChunks(ctx, batch...)
			return err
		})
}

// ReembedConcepts regenerates the embedding of every concept, using the
// canonical name as the embedded text.
func (r *Reembedder) ReembedConcepts(ctx context.Context) error {
	concepts, err := r.concepts.GetAllConcepts(ctx)
	if err != nil {
		return fmt.Errorf("failed to query concepts: %w", err)
	}

	return runPass(ctx, r, "concepts", concepts,
		func(con *core.Concept) string { return con.Name },
		func(con *core.Concept, vector []float32) { con.Vector = vector },
		func(ctx context.Context, batch []*core.Concept) error {
			_, err := r.concepts.AddConcepts(ctx, batch...)
			return err
		})
}

// runPass embeds and stores one kind of item in batches, reporting progress.
func runPass[T any](
	ctx context.Context,
	r *Reembedder,
	label string,
	items []T,
	text func(T) string,
	assign func(T, []float32),
	store func(context.Context, []T) error,
) error {
	if len(items) == 0 {
		fmt.Fprintf(r.progress, "No %s found (0 items)\n", label)
		return nil
	}

	fmt.Fprintf(r.progress, "Reembedding %d %s (batch size: %d)\n",
		len(items), label, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(items), r.config.ReportInterval)
	tracker.Start()

	for start := 0; start < len(items); start += r.config.BatchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := start + r.config.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		texts := make([]string, len(batch))
		for i, item := range batch {
			texts[i] = text(item)
		}

		var embeddings [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			embeddings, err = r.embedder.EmbedTexts(ctx, texts)
			return err
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings after %d attempts: %w", r.config.MaxRetries, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}

		for i, item := range batch {
			assign(item, NormalizeVector(embeddings[i]))
		}
		if err := store(ctx, batch); err != nil {
			return fmt.Errorf("failed to store %s batch: %w", label, err)
		}

		tracker.Increment(len(batch))
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding of %s complete. Processed %d items in %v (%.1f items/sec)\n",
		label, len(items), elapsed.Round(time.Second), float64(len(items))/elapsed.Seconds())

	return nil
}
