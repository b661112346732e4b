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

// Package postgres implements the storage repositories over PostgreSQL with
// the pgvector extension. It is the shared-server alternative to the
// embedded badger backend; both satisfy the same interfaces.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/poiesic/gnosis/storage"
)

// querier is the query subset shared by pgxpool.Pool and pgx.Tx, letting
// repository methods run inside or outside a transaction transparently.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// Backend wraps a pgx connection pool shared by all repositories.
type Backend struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	vectorDim int
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithVectorDim sets the embedding column dimension for schema creation.
// Default is 768.
func WithVectorDim(dim int) BackendOption {
	return func(b *Backend) { b.vectorDim = dim }
}

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) { b.logger = logger }
}

// OpenBackend connects to PostgreSQL and ensures the schema exists. The
// pgvector extension must be installable by the connecting role.
func OpenBackend(ctx context.Context, connString string, opts ...BackendOption) (*Backend, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	b := &Backend{
		pool:      pool,
		logger:    slog.Default(),
		vectorDim: 768,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) createSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id BIGINT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		year INT NOT NULL DEFAULT 0,
		publisher TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		embedding vector(%[1]d),
		concept_ids BIGINT[] NOT NULL DEFAULT '{}',
		category_ids BIGINT[] NOT NULL DEFAULT '{}',
		content_hash TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_documents_concepts ON documents USING GIN (concept_ids);
	CREATE INDEX IF NOT EXISTS idx_documents_categories ON documents USING GIN (category_ids);

	CREATE TABLE IF NOT EXISTS pages (
		id BIGINT PRIMARY KEY,
		document_id BIGINT NOT NULL,
		number INT NOT NULL,
		concept_ids BIGINT[] NOT NULL DEFAULT '{}',
		preview TEXT NOT NULL DEFAULT '',
		embedding vector(%[1]d),
		UNIQUE (document_id, number)
	);
	CREATE INDEX IF NOT EXISTS idx_pages_concepts ON pages USING GIN (concept_ids);

	CREATE TABLE IF NOT EXISTS chunks (
		id BIGINT PRIMARY KEY,
		document_id BIGINT NOT NULL,
		page_number INT NOT NULL DEFAULT 0,
		body TEXT NOT NULL,
		concept_ids BIGINT[] NOT NULL DEFAULT '{}',
		density REAL NOT NULL DEFAULT 0,
		embedding vector(%[1]d)
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks (document_id, page_number);
	CREATE INDEX IF NOT EXISTS idx_chunks_concepts ON chunks USING GIN (concept_ids);

	CREATE TABLE IF NOT EXISTS concepts (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		category_id BIGINT NOT NULL DEFAULT 0,
		synonyms TEXT[] NOT NULL DEFAULT '{}',
		broader_terms TEXT[] NOT NULL DEFAULT '{}',
		narrower_terms TEXT[] NOT NULL DEFAULT '{}',
		related_ids BIGINT[] NOT NULL DEFAULT '{}',
		embedding vector(%[1]d),
		weight REAL NOT NULL DEFAULT 0,
		chunk_count INT NOT NULL DEFAULT 0,
		document_count INT NOT NULL DEFAULT 0,
		provenance INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS categories (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		aliases TEXT[] NOT NULL DEFAULT '{}',
		parent_id BIGINT NOT NULL DEFAULT 0,
		related_ids BIGINT[] NOT NULL DEFAULT '{}'
	);
	`, b.vectorDim)

	if _, err := b.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// q returns the transaction bound to ctx, or the pool.
func (b *Backend) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return b.pool
}

// WithTransaction runs fn inside one transaction. Repository calls made
// with the callback's context join it.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		// already inside a transaction
		return fn(ctx)
	}
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			b.logger.Error("rollback failed", "err", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
