package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

// CategoryRepository implements storage.CategoryRepository for BadgerDB.
type CategoryRepository struct {
	backend *Backend
}

var _ storage.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(backend *Backend) (*CategoryRepository, error) {
	return &CategoryRepository{
		backend: backend,
	}, nil
}

// Close releases resources. CategoryRepository has no resources to release.
func (r *CategoryRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CategoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCategories adds one or more categories to storage.
func (r *CategoryRepository) AddCategories(ctx context.Context, categories ...*core.Category) ([]*core.Category, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, category := range categories {
			if category.Id == 0 {
				category.Id = core.CategoryID(category.Name)
			}

			key := makeRecordKey(categoryPrefix, category.Id)
			if err := tx.Set(key, storage.MarshalCategory(category)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return categories, err
}

// GetCategory retrieves a single category by ID.
func (r *CategoryRepository) GetCategory(ctx context.Context, id core.ID) (*core.Category, error) {
	var result *core.Category
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordKey(categoryPrefix, id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalCategory(val)
			return err
		})
	}, false)
	return result, err
}

// GetAllCategories retrieves all categories from storage.
func (r *CategoryRepository) GetAllCategories(ctx context.Context) ([]*core.Category, error) {
	var results []*core.Category
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(categoryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var category *core.Category
			err := iter.Item().Value(func(val []byte) error {
				var err error
				category, err = storage.UnmarshalCategory(val)
				return err
			})
			if err != nil {
				return err
			}
			if category != nil {
				results = append(results, category)
			}
		}
		return nil
	}, false)
	return results, err
}
