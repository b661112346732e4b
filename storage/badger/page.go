package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

// PageRepository implements storage.PageRepository for BadgerDB.
type PageRepository struct {
	backend *Backend
}

var _ storage.PageRepository = (*PageRepository)(nil)

// NewPageRepository creates a new PageRepository.
func NewPageRepository(backend *Backend) (*PageRepository, error) {
	return &PageRepository{
		backend: backend,
	}, nil
}

// Close releases resources. PageRepository has no resources to release.
func (r *PageRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *PageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddPages adds one or more pages to storage.
func (r *PageRepository) AddPages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, page := range pages {
			// Derive ID from owning document and page number if not set
			if page.Id == 0 {
				page.Id = core.PageID(page.DocumentId, page.Number)
			}

			// Store primary record
			key := makeRecordKey(pagePrefix, page.Id)
			if err := tx.Set(key, storage.MarshalPage(page)); err != nil {
				return err
			}

			// Document index, ordered by page number
			docKey := makePageDocKey(page.DocumentId, page.Number)
			if err := tx.Set(docKey, storage.MarshalID(page.Id)); err != nil {
				return err
			}

			// Concept index
			for _, conceptID := range page.ConceptIds {
				joinKey := makeJoinKey(pageConceptPrefix, conceptID, page.Id)
				if err := tx.Set(joinKey, storage.MarshalID(page.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return pages, err
}

// GetPage retrieves a single page by ID.
func (r *PageRepository) GetPage(ctx context.Context, id core.ID) (*core.Page, error) {
	var result *core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPage(tx, makeRecordKey(pagePrefix, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetPagesByDocument retrieves all pages of a document, ordered by page number.
func (r *PageRepository) GetPagesByDocument(ctx context.Context, documentID core.ID) ([]*core.Page, error) {
	var results []*core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		partial := makePartialJoinKey(pageDocPrefix, documentID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(partial); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), partial) {
				break
			}
			var pageID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				pageID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			page, err := readPage(tx, makeRecordKey(pagePrefix, pageID))
			if err != nil {
				return err
			}
			if page != nil {
				results = append(results, page)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetPagesByConcept retrieves all pages on which a concept appears.
func (r *PageRepository) GetPagesByConcept(ctx context.Context, conceptID core.ID) ([]*core.Page, error) {
	var results []*core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		partial := makePartialJoinKey(pageConceptPrefix, conceptID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(partial); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), partial) {
				break
			}
			var pageID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				pageID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			page, err := readPage(tx, makeRecordKey(pagePrefix, pageID))
			if err != nil {
				return err
			}
			if page != nil {
				results = append(results, page)
			}
		}
		return nil
	}, false)
	return results, err
}

// readPage reads a page from the transaction.
// Returns nil without error when the key is absent.
func readPage(tx *badger.Txn, key []byte) (*core.Page, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var page *core.Page
	err = item.Value(func(val []byte) error {
		var err error
		page, err = storage.UnmarshalPage(val)
		return err
	})
	return page, err
}
