package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

// ConceptRepository implements storage.ConceptRepository for BadgerDB.
type ConceptRepository struct {
	backend *Backend
}

var _ storage.ConceptRepository = (*ConceptRepository)(nil)

// NewConceptRepository creates a new ConceptRepository.
func NewConceptRepository(backend *Backend) (*ConceptRepository, error) {
	return &ConceptRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ConceptRepository has no resources to release.
func (r *ConceptRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ConceptRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddConcepts adds one or more concepts to storage.
// Concept names are normalized; the ID is the content hash of the canonical
// name, so no separate name index is needed.
func (r *ConceptRepository) AddConcepts(ctx context.Context, concepts ...*core.Concept) ([]*core.Concept, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, concept := range concepts {
			concept.Name = core.NormalizeName(concept.Name)
			if concept.Id == 0 {
				concept.Id = core.ConceptID(concept.Name)
			}

			key := makeRecordKey(conceptPrefix, concept.Id)
			if err := tx.Set(key, storage.MarshalConcept(concept)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return concepts, err
}

// GetConcept retrieves a single concept by ID.
func (r *ConceptRepository) GetConcept(ctx context.Context, id core.ID) (*core.Concept, error) {
	var result *core.Concept
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readConcept(tx, makeRecordKey(conceptPrefix, id))
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

// GetConcepts retrieves multiple concepts by their IDs.
func (r *ConceptRepository) GetConcepts(ctx context.Context, ids ...core.ID) ([]*core.Concept, error) {
	var result []*core.Concept
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			concept, err := readConcept(tx, makeRecordKey(conceptPrefix, id))
			if err != nil {
				return err
			}
			if concept != nil {
				result = append(result, concept)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindConceptByName finds a concept by its canonical name.
func (r *ConceptRepository) FindConceptByName(ctx context.Context, name string) (*core.Concept, error) {
	return r.GetConcept(ctx, core.ConceptID(name))
}

// GetAllConcepts retrieves all concepts from storage.
func (r *ConceptRepository) GetAllConcepts(ctx context.Context) ([]*core.Concept, error) {
	var results []*core.Concept
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(conceptPrefix + ":")
		opts.PrefetchValues = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var concept *core.Concept
			err := iter.Item().Value(func(val []byte) error {
				var err error
				concept, err = storage.UnmarshalConcept(val)
				return err
			})
			if err != nil {
				return err
			}
			if concept != nil {
				results = append(results, concept)
			}
		}
		return nil
	}, false)

	return results, err
}

// FindSimilarConcepts finds concepts whose embedding is similar to the given vector.
func (r *ConceptRepository) FindSimilarConcepts(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error) {
	return r.backend.findSimilar([]byte(conceptPrefix+":"), vector, minSimilarity, limit, func(val []byte) (core.ID, []float32, error) {
		concept, err := storage.UnmarshalConcept(val)
		if err != nil {
			return 0, nil, err
		}
		return concept.Id, concept.Vector, nil
	})
}

// readConcept reads a concept from the transaction.
// Returns nil without error when the key is absent.
func readConcept(tx *badger.Txn, key []byte) (*core.Concept, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var concept *core.Concept
	err = item.Value(func(val []byte) error {
		var err error
		concept, err = storage.UnmarshalConcept(val)
		return err
	})
	return concept, err
}
