package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

type documentRepository struct {
	backend *Backend
}

// NewDocumentRepository creates a document repository over a postgres backend.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &documentRepository{backend: backend}, nil
}

const documentColumns = `id, source, title, author, year, publisher, summary, embedding, concept_ids, category_ids, content_hash`

func (r *documentRepository) AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error) {
	q := r.backend.q(ctx)
	for _, doc := range documents {
		if doc.Id == 0 {
			doc.Id = core.IDFromContent(doc.Source)
		}
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
		_, err := q.Exec(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				source = EXCLUDED.source,
				title = EXCLUDED.title,
				author = EXCLUDED.author,
				year = EXCLUDED.year,
				publisher = EXCLUDED.publisher,
				summary = EXCLUDED.summary,
				embedding = EXCLUDED.embedding,
				concept_ids = EXCLUDED.concept_ids,
				category_ids = EXCLUDED.category_ids,
				content_hash = EXCLUDED.content_hash`,
			toInt64(doc.Id), doc.Source, doc.Title, doc.Author, doc.Year,
			doc.Publisher, doc.Summary, vectorParam(doc.Vector),
			idsToInt64(doc.ConceptIds), idsToInt64(doc.CategoryIds), doc.ContentHash)
		if err != nil {
			return nil, &core.StoreError{Op: "add documents", Err: err}
		}
	}
	return documents, nil
}

func scanDocument(row pgx.Row) (*core.Document, error) {
	var (
		doc         core.Document
		id          int64
		embedding   *pgvector.Vector
		conceptIds  []int64
		categoryIds []int64
	)
	err := row.Scan(&id, &doc.Source, &doc.Title, &doc.Author, &doc.Year,
		&doc.Publisher, &doc.Summary, &embedding, &conceptIds, &categoryIds,
		&doc.ContentHash)
	if err != nil {
		return nil, err
	}
	doc.Id = fromInt64(id)
	doc.Vector = vectorValue(embedding)
	doc.ConceptIds = int64ToIDs(conceptIds)
	doc.CategoryIds = int64ToIDs(categoryIds)
	return &doc, nil
}

func (r *documentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, toInt64(id))
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, &core.StoreError{Op: "get document", Err: err}
	}
	return doc, nil
}

func (r *documentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.backend.q(ctx).Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ANY($1)`, idsToInt64(ids))
	if err != nil {
		return nil, &core.StoreError{Op: "get documents", Err: err}
	}
	defer rows.Close()
	return collectDocuments(rows, ids)
}

// collectDocuments preserves the requested ID order, skipping missing rows.
func collectDocuments(rows pgx.Rows, order []core.ID) ([]*core.Document, error) {
	byID := make(map[core.ID]*core.Document)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan document", Err: err}
		}
		byID[doc.Id] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "iterate documents", Err: err}
	}
	out := make([]*core.Document, 0, len(byID))
	for _, id := range order {
		if doc, ok := byID[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *documentRepository) GetDocumentsByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error) {
	return r.idsWhere(ctx, `SELECT id FROM documents WHERE $1 = ANY(concept_ids) ORDER BY id`, toInt64(conceptID))
}

func (r *documentRepository) GetDocumentsByCategory(ctx context.Context, categoryID core.ID) ([]core.ID, error) {
	return r.idsWhere(ctx, `SELECT id FROM documents WHERE $1 = ANY(category_ids) ORDER BY id`, toInt64(categoryID))
}

func (r *documentRepository) idsWhere(ctx context.Context, sql string, args ...any) ([]core.ID, error) {
	rows, err := r.backend.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "query document ids", Err: err}
	}
	defer rows.Close()

	var out []core.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &core.StoreError{Op: "scan document id", Err: err}
		}
		out = append(out, fromInt64(id))
	}
	return out, rows.Err()
}

func (r *documentRepository) GetAllDocuments(ctx context.Context) ([]*core.Document, error) {
	rows, err := r.backend.q(ctx).Query(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY id`)
	if err != nil {
		return nil, &core.StoreError{Op: "get all documents", Err: err}
	}
	defer rows.Close()

	var out []*core.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan document", Err: err}
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *documentRepository) FindSimilarDocuments(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error) {
	return findSimilar(ctx, r.backend, "documents", vector, minSimilarity, limit)
}

func (r *documentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

func (r *documentRepository) Close() error {
	return nil
}

// findSimilar runs the pgvector cosine scan shared by all repositories with
// embeddings. The table name comes from a fixed internal set, never user
// input.
func findSimilar(ctx context.Context, backend *Backend, table string, vector []float32, minSimilarity float32, limit int) ([]core.Match, error) {
	if len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`
		SELECT id, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`, table)
	rows, err := backend.q(ctx).Query(ctx, query, pgvector.NewVector(vector), minSimilarity, limit)
	if err != nil {
		return nil, &core.StoreError{Op: "similarity scan", Err: err}
	}
	defer rows.Close()

	var matches []core.Match
	for rows.Next() {
		var (
			id    int64
			score float32
		)
		if err := rows.Scan(&id, &score); err != nil {
			return nil, &core.StoreError{Op: "scan match", Err: err}
		}
		matches = append(matches, core.Match{Id: fromInt64(id), Score: score})
	}
	return matches, rows.Err()
}
