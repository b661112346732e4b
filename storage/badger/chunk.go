package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunks adds one or more chunks to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			// Use content-based ID if not set
			if chunk.Id == 0 {
				chunk.Id = core.IDFromContent(chunk.Text)
			}

			// Store primary record
			key := makeRecordKey(chunkPrefix, chunk.Id)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			// Document index
			docKey := makeJoinKey(chunkDocPrefix, chunk.DocumentId, chunk.Id)
			if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}

			// Page index, only for chunks with a known owning page
			if chunk.PageNumber > 0 {
				pageKey := makeChunkPageKey(chunk.DocumentId, chunk.PageNumber, chunk.Id)
				if err := tx.Set(pageKey, storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
			}

			// Concept index
			for _, conceptID := range chunk.ConceptIds {
				joinKey := makeJoinKey(chunkConceptPrefix, conceptID, chunk.Id)
				if err := tx.Set(joinKey, storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeRecordKey(chunkPrefix, id))
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

// GetChunks retrieves multiple chunks by their IDs.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeRecordKey(chunkPrefix, id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetChunksByDocument retrieves all chunks of a document.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	return r.scanChunks(makePartialJoinKey(chunkDocPrefix, documentID))
}

// GetChunksByPage retrieves the chunks of one page of a document.
func (r *ChunkRepository) GetChunksByPage(ctx context.Context, documentID core.ID, pageNumber int) ([]*core.Chunk, error) {
	return r.scanChunks(makePartialChunkPageKey(documentID, pageNumber))
}

// GetChunksByConcept retrieves IDs of chunks tagged with a concept.
func (r *ChunkRepository) GetChunksByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error) {
	var results []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		partial := makePartialJoinKey(chunkConceptPrefix, conceptID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
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

// GetAllChunks retrieves all chunks from storage.
func (r *ChunkRepository) GetAllChunks(ctx context.Context) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// FindSimilarChunks finds chunks whose embedding is similar to the given vector.
func (r *ChunkRepository) FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error) {
	return r.backend.findSimilar([]byte(chunkPrefix+":"), vector, minSimilarity, limit, func(val []byte) (core.ID, []float32, error) {
		chunk, err := storage.UnmarshalChunk(val)
		if err != nil {
			return 0, nil, err
		}
		return chunk.Id, chunk.Vector, nil
	})
}

// scanChunks resolves an index scan into full chunk records.
func (r *ChunkRepository) scanChunks(partial []byte) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(partial); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), partial) {
				break
			}
			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeRecordKey(chunkPrefix, chunkID))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// readChunk reads a chunk from the transaction.
// Returns nil without error when the key is absent.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}
