package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

type categoryRepository struct {
	backend *Backend
}

// NewCategoryRepository creates a category repository over a postgres backend.
func NewCategoryRepository(backend *Backend) (storage.CategoryRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &categoryRepository{backend: backend}, nil
}

const categoryColumns = `id, name, description, aliases, parent_id, related_ids`

func (r *categoryRepository) AddCategories(ctx context.Context, categories ...*core.Category) ([]*core.Category, error) {
	q := r.backend.q(ctx)
	for _, cat := range categories {
		if cat.Id == 0 {
			cat.Id = core.CategoryID(cat.Name)
		}
		if err := core.ValidateCategory(cat); err != nil {
			return nil, err
		}
		_, err := q.Exec(ctx, `
			INSERT INTO categories (`+categoryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				aliases = EXCLUDED.aliases,
				parent_id = EXCLUDED.parent_id,
				related_ids = EXCLUDED.related_ids`,
			toInt64(cat.Id), cat.Name, cat.Description, cat.Aliases,
			toInt64(cat.ParentId), idsToInt64(cat.RelatedIds))
		if err != nil {
			return nil, &core.StoreError{Op: "add categories", Err: err}
		}
	}
	return categories, nil
}

func scanCategory(row pgx.Row) (*core.Category, error) {
	var (
		cat        core.Category
		id         int64
		parentID   int64
		relatedIds []int64
	)
	err := row.Scan(&id, &cat.Name, &cat.Description, &cat.Aliases, &parentID, &relatedIds)
	if err != nil {
		return nil, err
	}
	cat.Id = fromInt64(id)
	cat.ParentId = fromInt64(parentID)
	cat.RelatedIds = int64ToIDs(relatedIds)
	return &cat, nil
}

func (r *categoryRepository) GetCategory(ctx context.Context, id core.ID) (*core.Category, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, toInt64(id))
	cat, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, &core.StoreError{Op: "get category", Err: err}
	}
	return cat, nil
}

func (r *categoryRepository) GetAllCategories(ctx context.Context) ([]*core.Category, error) {
	rows, err := r.backend.q(ctx).Query(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, &core.StoreError{Op: "get all categories", Err: err}
	}
	defer rows.Close()

	var out []*core.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan category", Err: err}
		}
		out = append(out, cat)
	}
	return out, rows.Err()
}

func (r *categoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

func (r *categoryRepository) Close() error {
	return nil
}
