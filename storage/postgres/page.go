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

type pageRepository struct {
	backend *Backend
}

// NewPageRepository creates a page repository over a postgres backend.
func NewPageRepository(backend *Backend) (storage.PageRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &pageRepository{backend: backend}, nil
}

const pageColumns = `id, document_id, number, concept_ids, preview, embedding`

func (r *pageRepository) AddPages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error) {
	q := r.backend.q(ctx)
	for _, page := range pages {
		if page.Id == 0 {
			page.Id = core.PageID(page.DocumentId, page.Number)
		}
		if err := core.ValidatePage(page); err != nil {
			return nil, err
		}
		_, err := q.Exec(ctx, `
			INSERT INTO pages (`+pageColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				concept_ids = EXCLUDED.concept_ids,
				preview = EXCLUDED.preview,
				embedding = EXCLUDED.embedding`,
			toInt64(page.Id), toInt64(page.DocumentId), page.Number,
			idsToInt64(page.ConceptIds), page.Preview, vectorParam(page.Vector))
		if err != nil {
			return nil, &core.StoreError{Op: "add pages", Err: err}
		}
	}
	return pages, nil
}

func scanPage(row pgx.Row) (*core.Page, error) {
	var (
		page       core.Page
		id         int64
		documentID int64
		embedding  *pgvector.Vector
		conceptIds []int64
	)
	err := row.Scan(&id, &documentID, &page.Number, &conceptIds, &page.Preview, &embedding)
	if err != nil {
		return nil, err
	}
	page.Id = fromInt64(id)
	page.DocumentId = fromInt64(documentID)
	page.ConceptIds = int64ToIDs(conceptIds)
	page.Vector = vectorValue(embedding)
	return &page, nil
}

func (r *pageRepository) GetPage(ctx context.Context, id core.ID) (*core.Page, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = $1`, toInt64(id))
	page, err := scanPage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("page %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, &core.StoreError{Op: "get page", Err: err}
	}
	return page, nil
}

func (r *pageRepository) GetPagesByDocument(ctx context.Context, documentID core.ID) ([]*core.Page, error) {
	return r.pagesWhere(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE document_id = $1 ORDER BY number`,
		toInt64(documentID))
}

func (r *pageRepository) GetPagesByConcept(ctx context.Context, conceptID core.ID) ([]*core.Page, error) {
	return r.pagesWhere(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE $1 = ANY(concept_ids) ORDER BY document_id, number`,
		toInt64(conceptID))
}

func (r *pageRepository) pagesWhere(ctx context.Context, sql string, args ...any) ([]*core.Page, error) {
	rows, err := r.backend.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "query pages", Err: err}
	}
	defer rows.Close()

	var out []*core.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan page", Err: err}
		}
		out = append(out, page)
	}
	return out, rows.Err()
}

func (r *pageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

func (r *pageRepository) Close() error {
	return nil
}
