package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{
		backend: backend,
	}, nil
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments adds one or more documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			// Use content-based ID if not set
			if document.Id == 0 {
				document.Id = core.IDFromContent(document.Source)
			}

			// Store primary record
			key := makeRecordKey(documentPrefix, document.Id)
			value := storage.MarshalDocument(document)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Store concept and category join indexes
			for _, conceptID := range document.ConceptIds {
				joinKey := makeJoinKey(documentConceptPrefix, conceptID, document.Id)
				if err := tx.Set(joinKey, storage.MarshalID(document.Id)); err != nil {
					return err
				}
			}
			for _, categoryID := range document.CategoryIds {
				joinKey := makeJoinKey(documentCatPrefix, categoryID, document.Id)
				if err := tx.Set(joinKey, storage.MarshalID(document.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeRecordKey(documentPrefix, id))
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

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			document, err := readDocument(tx, makeRecordKey(documentPrefix, id))
			if err != nil {
				return err
			}
			if document != nil {
				result = append(result, document)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsByConcept retrieves IDs of documents tagged with a concept.
func (r *DocumentRepository) GetDocumentsByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error) {
	return r.scanJoinIndex(documentConceptPrefix, conceptID)
}

// GetDocumentsByCategory retrieves IDs of documents assigned to a category.
func (r *DocumentRepository) GetDocumentsByCategory(ctx context.Context, categoryID core.ID) ([]core.ID, error) {
	return r.scanJoinIndex(documentCatPrefix, categoryID)
}

// GetAllDocuments retrieves all documents from storage.
func (r *DocumentRepository) GetAllDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var document *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				document, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if document != nil {
				results = append(results, document)
			}
		}
		return nil
	}, false)
	return results, err
}

// FindSimilarDocuments finds documents whose embedding is similar to the given vector.
func (r *DocumentRepository) FindSimilarDocuments(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error) {
	return r.backend.findSimilar([]byte(documentPrefix+":"), vector, minSimilarity, limit, func(val []byte) (core.ID, []float32, error) {
		document, err := storage.UnmarshalDocument(val)
		if err != nil {
			return 0, nil, err
		}
		return document.Id, document.Vector, nil
	})
}

// scanJoinIndex collects the referenced IDs under one side of a join index.
func (r *DocumentRepository) scanJoinIndex(prefix string, left core.ID) ([]core.ID, error) {
	var results []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		partial := makePartialJoinKey(prefix, left)
		opts := badger.DefaultIteratorOptions
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(partial); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), partial) {
				break
			}
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, id)
		}
		return nil
	}, false)
	return results, err
}

// readDocument reads a document from the transaction.
// Returns nil without error when the key is absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var document *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		document, err = storage.UnmarshalDocument(val)
		return err
	})
	return document, err
}
