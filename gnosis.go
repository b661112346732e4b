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


// Package gnosis is a concept-centric retrieval engine over a document
// corpus. It stores documents, pages, passages, a concept lexicon and a
// category tree, and answers hybrid semantic, keyword and conceptual
// queries against them.
package gnosis

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/poiesic/gnosis/ai"
	"github.com/poiesic/gnosis/ai/openai"
	"github.com/poiesic/gnosis/index"
	"github.com/poiesic/gnosis/navigate"
	"github.com/poiesic/gnosis/search"
	"github.com/poiesic/gnosis/storage"
	"github.com/poiesic/gnosis/storage/badger"
	"github.com/poiesic/gnosis/storage/postgres"
	"github.com/poiesic/gnosis/taxonomy"
	"github.com/poiesic/gnosis/thesaurus"
)

// Database wires the storage backend, repositories, AI provider and
// rebuildable in-memory structures together. It implements
// navigate.SnapshotProvider: queries always run against one consistent
// snapshot while Rebuild prepares the next one.
type Database struct {
	backend      io.Closer
	documentRepo storage.DocumentRepository
	pageRepo     storage.PageRepository
	chunkRepo    storage.ChunkRepository
	conceptRepo  storage.ConceptRepository
	categoryRepo storage.CategoryRepository
	provider     ai.AIProvider
	thesaurus    thesaurus.Thesaurus
	logger       *slog.Logger
	workers      int

	snapshot atomic.Pointer[navigate.Snapshot]
	// rebuildMu serializes rebuilds; readers only touch the pointer
	rebuildMu sync.Mutex
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig    *ai.Config
	provider    ai.AIProvider
	thesaurus   thesaurus.Thesaurus
	logger      *slog.Logger
	inMemory    bool
	workers     int
	postgresDSN string
}

// WithAIConfig sets the configuration for the default OpenAI-compatible
// provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) { o.aiConfig = cfg }
}

// WithAIProvider injects a prebuilt AI provider, bypassing the default
// OpenAI-compatible one. The database takes ownership and closes it.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) { o.provider = provider }
}

// WithThesaurus attaches a thesaurus for query expansion. Without one, all
// queries run corpus-only.
func WithThesaurus(th thesaurus.Thesaurus) DatabaseOption {
	return func(o *databaseOptions) { o.thesaurus = th }
}

// WithDatabaseLogger sets the logger shared by the database's components.
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) { o.logger = logger }
}

// WithInMemory opens the backend without a backing directory. Intended for
// tests and experimentation.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) { o.inMemory = true }
}

// WithIndexWorkers sets the worker pool size used for term-index builds.
func WithIndexWorkers(n int) DatabaseOption {
	return func(o *databaseOptions) { o.workers = n }
}

// WithPostgres stores the corpus in PostgreSQL with pgvector instead of the
// embedded BadgerDB backend. The filePath argument of NewDatabase is ignored.
func WithPostgres(dsn string) DatabaseOption {
	return func(o *databaseOptions) { o.postgresDSN = dsn }
}

// NewDatabase opens the storage backend at filePath and wires the
// repositories and AI services. Call Rebuild before serving queries.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		workers:  4,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	var (
		backend io.Closer
		repos   *repositories
		err     error
	)
	if options.postgresDSN != "" {
		backend, repos, err = openPostgresRepos(options.postgresDSN, options.logger)
	} else {
		backend, repos, err = openBadgerRepos(filePath, options.inMemory)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.closeAll()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:      backend,
		documentRepo: repos.documents,
		pageRepo:     repos.pages,
		chunkRepo:    repos.chunks,
		conceptRepo:  repos.concepts,
		categoryRepo: repos.categories,
		provider:     provider,
		thesaurus:    options.thesaurus,
		logger:       options.logger,
		workers:      options.workers,
	}, nil
}

// repositories bundles the five per-entity repositories over one backend.
type repositories struct {
	documents  storage.DocumentRepository
	pages      storage.PageRepository
	chunks     storage.ChunkRepository
	concepts   storage.ConceptRepository
	categories storage.CategoryRepository
}

func (r *repositories) closeAll() {
	for _, repo := range []storage.Repository{
		r.categories, r.concepts, r.chunks, r.pages, r.documents,
	} {
		if repo != nil {
			repo.Close()
		}
	}
}

func openBadgerRepos(filePath string, inMemory bool) (io.Closer, *repositories, error) {
	backend, err := badger.OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, nil, err
	}

	repos := &repositories{}
	fail := func(err error) (io.Closer, *repositories, error) {
		repos.closeAll()
		backend.Close()
		return nil, nil, err
	}

	if repos.documents, err = badger.NewDocumentRepository(backend); err != nil {
		return fail(err)
	}
	if repos.pages, err = badger.NewPageRepository(backend); err != nil {
		return fail(err)
	}
	if repos.chunks, err = badger.NewChunkRepository(backend); err != nil {
		return fail(err)
	}
	if repos.concepts, err = badger.NewConceptRepository(backend); err != nil {
		return fail(err)
	}
	if repos.categories, err = badger.NewCategoryRepository(backend); err != nil {
		return fail(err)
	}
	return backend, repos, nil
}

func openPostgresRepos(dsn string, logger *slog.Logger) (io.Closer, *repositories, error) {
	backend, err := postgres.OpenBackend(context.Background(), dsn, postgres.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	repos := &repositories{}
	fail := func(err error) (io.Closer, *repositories, error) {
		repos.closeAll()
		backend.Close()
		return nil, nil, err
	}

	if repos.documents, err = postgres.NewDocumentRepository(backend); err != nil {
		return fail(err)
	}
	if repos.pages, err = postgres.NewPageRepository(backend); err != nil {
		return fail(err)
	}
	if repos.chunks, err = postgres.NewChunkRepository(backend); err != nil {
		return fail(err)
	}
	if repos.concepts, err = postgres.NewConceptRepository(backend); err != nil {
		return fail(err)
	}
	if repos.categories, err = postgres.NewCategoryRepository(backend); err != nil {
		return fail(err)
	}
	return backend, repos, nil
}

// Snapshot returns the current term index and caches, nil before the first
// Rebuild.
func (db *Database) Snapshot() *navigate.Snapshot {
	return db.snapshot.Load()
}

// Rebuild constructs the term index and the concept and category caches
// from current storage and swaps them in atomically. In-flight queries keep
// the snapshot they started with.
func (db *Database) Rebuild(ctx context.Context) error {
	db.rebuildMu.Lock()
	defer db.rebuildMu.Unlock()

	chunks, err := db.chunkRepo.GetAllChunks(ctx)
	if err != nil {
		return err
	}
	ix, err := index.Build(ctx, chunks, db.workers, db.logger)
	if err != nil {
		return err
	}

	concepts, err := db.conceptRepo.GetAllConcepts(ctx)
	if err != nil {
		return err
	}
	categories, err := db.categoryRepo.GetAllCategories(ctx)
	if err != nil {
		return err
	}
	documents, err := db.documentRepo.GetAllDocuments(ctx)
	if err != nil {
		return err
	}

	caches := taxonomy.Build(concepts, categories, documents, chunks)
	db.snapshot.Store(&navigate.Snapshot{Index: ix, Caches: caches})

	db.logger.Info("snapshot rebuilt",
		"chunks", len(chunks),
		"concepts", caches.Concepts.Len(),
		"categories", caches.Categories.Len(),
		"documents", len(documents))
	return nil
}

// Close releases the AI provider, repositories and backend.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	for _, repo := range []storage.Repository{
		db.categoryRepo, db.conceptRepo, db.chunkRepo, db.pageRepo, db.documentRepo,
	} {
		if err := repo.Close(); err != nil {
			db.logger.Error("error closing repository", "err", err)
			return err
		}
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the document repository.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documentRepo
}

// PageRepository returns the page repository.
func (db *Database) PageRepository() storage.PageRepository {
	return db.pageRepo
}

// ChunkRepository returns the chunk repository.
func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

// ConceptRepository returns the concept repository.
func (db *Database) ConceptRepository() storage.ConceptRepository {
	return db.conceptRepo
}

// CategoryRepository returns the category repository.
func (db *Database) CategoryRepository() storage.CategoryRepository {
	return db.categoryRepo
}

// Embedder returns the configured embedding service.
func (db *Database) Embedder() ai.Embedder {
	return db.provider.Embedder()
}

// NewNavigator creates a concept navigator over this database.
func (db *Database) NewNavigator(opts ...navigate.Option) (*navigate.Navigator, error) {
	return navigate.NewNavigator(
		db.documentRepo, db.pageRepo, db.chunkRepo, db.conceptRepo,
		db.provider, db.thesaurus, db, opts...)
}

// NewEngine creates a search engine over this database.
func (db *Database) NewEngine(opts ...search.Option) (*search.Engine, error) {
	navigator, err := db.NewNavigator()
	if err != nil {
		return nil, err
	}
	return search.NewEngine(
		db.documentRepo, db.chunkRepo, db.conceptRepo,
		db.provider, db.thesaurus, navigator, db, opts...)
}
