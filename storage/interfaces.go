package storage

import (
	"context"

	"github.com/poiesic/gnosis/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, generates content-based IDs from the source locator.
	// Returns the documents with IDs populated.
	AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentsByConcept retrieves IDs of documents tagged with a concept.
	GetDocumentsByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error)

	// GetDocumentsByCategory retrieves IDs of documents assigned to a category.
	GetDocumentsByCategory(ctx context.Context, categoryID core.ID) ([]core.ID, error)

	// GetAllDocuments retrieves every document. Intended for cache and index
	// construction, not for query-time use.
	GetAllDocuments(ctx context.Context) ([]*core.Document, error)

	// FindSimilarDocuments finds documents whose embedding is similar to the
	// given vector. Returns matches with similarity >= minSimilarity, up to
	// limit results, ordered by similarity score (highest first).
	FindSimilarDocuments(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error)
}

// PageRepository provides operations for managing pages.
type PageRepository interface {
	Repository

	// AddPages adds one or more pages to storage.
	// For pages with ID=0, derives IDs from the owning document and page number.
	AddPages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error)

	// GetPage retrieves a single page by ID.
	// Returns ErrNotFound if the page doesn't exist.
	GetPage(ctx context.Context, id core.ID) (*core.Page, error)

	// GetPagesByDocument retrieves all pages of a document, ordered by page number.
	GetPagesByDocument(ctx context.Context, documentID core.ID) ([]*core.Page, error)

	// GetPagesByConcept retrieves all pages on which a concept appears.
	GetPagesByConcept(ctx context.Context, conceptID core.ID) ([]*core.Page, error)
}

// ChunkRepository provides operations for managing text chunks.
type ChunkRepository interface {
	Repository

	// AddChunks adds one or more chunks to storage.
	// For chunks with ID=0, generates content-based IDs from the chunk text.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks of a document.
	GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// GetChunksByPage retrieves the chunks of one page of a document, in
	// insertion order.
	GetChunksByPage(ctx context.Context, documentID core.ID, pageNumber int) ([]*core.Chunk, error)

	// GetChunksByConcept retrieves IDs of chunks tagged with a concept.
	GetChunksByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error)

	// GetAllChunks retrieves every chunk. Intended for term-index construction,
	// not for query-time use.
	GetAllChunks(ctx context.Context) ([]*core.Chunk, error)

	// FindSimilarChunks finds chunks whose embedding is similar to the given
	// vector. Returns matches with similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first).
	FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error)
}

// ConceptRepository provides operations for managing concepts.
type ConceptRepository interface {
	Repository

	// AddConcepts adds one or more concepts to storage.
	// Uses content-based IDs derived from the canonical concept name.
	AddConcepts(ctx context.Context, concepts ...*core.Concept) ([]*core.Concept, error)

	// GetConcept retrieves a single concept by ID.
	// Returns ErrNotFound if the concept doesn't exist.
	GetConcept(ctx context.Context, id core.ID) (*core.Concept, error)

	// GetConcepts retrieves multiple concepts by their IDs.
	// Returns only the concepts that exist (no error for missing concepts).
	GetConcepts(ctx context.Context, ids ...core.ID) ([]*core.Concept, error)

	// FindConceptByName finds a concept by its canonical name.
	// The name is normalized before lookup.
	// Returns ErrNotFound if no matching concept exists.
	FindConceptByName(ctx context.Context, name string) (*core.Concept, error)

	// GetAllConcepts retrieves every concept. Intended for cache construction.
	GetAllConcepts(ctx context.Context) ([]*core.Concept, error)

	// FindSimilarConcepts finds concepts whose embedding is similar to the
	// given vector, ordered by similarity score (highest first).
	FindSimilarConcepts(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error)
}

// CategoryRepository provides operations for managing categories.
type CategoryRepository interface {
	Repository

	// AddCategories adds one or more categories to storage.
	// Uses content-based IDs derived from the canonical category name.
	AddCategories(ctx context.Context, categories ...*core.Category) ([]*core.Category, error)

	// GetCategory retrieves a single category by ID.
	// Returns ErrNotFound if the category doesn't exist.
	GetCategory(ctx context.Context, id core.ID) (*core.Category, error)

	// GetAllCategories retrieves every category. Intended for cache construction.
	GetAllCategories(ctx context.Context) ([]*core.Category, error)
}
