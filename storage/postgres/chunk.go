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

type chunkRepository struct {
	backend *Backend
}

// NewChunkRepository creates a chunk repository over a postgres backend.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &chunkRepository{backend: backend}, nil
}

const chunkColumns = `id, document_id, page_number, body, concept_ids, density, embedding`

func (r *chunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	q := r.backend.q(ctx)
	for _, chunk := range chunks {
		if chunk.Id == 0 {
			chunk.Id = core.IDFromContent(chunk.Text)
		}
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
		_, err := q.Exec(ctx, `
			INSERT INTO chunks (`+chunkColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				concept_ids = EXCLUDED.concept_ids,
				density = EXCLUDED.density,
				embedding = EXCLUDED.embedding`,
			toInt64(chunk.Id), toInt64(chunk.DocumentId), chunk.PageNumber,
			chunk.Text, idsToInt64(chunk.ConceptIds), chunk.Density,
			vectorParam(chunk.Vector))
		if err != nil {
			return nil, &core.StoreError{Op: "add chunks", Err: err}
		}
	}
	return chunks, nil
}

func scanChunk(row pgx.Row) (*core.Chunk, error) {
	var (
		chunk      core.Chunk
		id         int64
		documentID int64
		embedding  *pgvector.Vector
		conceptIds []int64
	)
	err := row.Scan(&id, &documentID, &chunk.PageNumber, &chunk.Text,
		&conceptIds, &chunk.Density, &embedding)
	if err != nil {
		return nil, err
	}
	chunk.Id = fromInt64(id)
	chunk.DocumentId = fromInt64(documentID)
	chunk.ConceptIds = int64ToIDs(conceptIds)
	chunk.Vector = vectorValue(embedding)
	return &chunk, nil
}

func (r *chunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = $1`, toInt64(id))
	chunk, err := scanChunk(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chunk %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, &core.StoreError{Op: "get chunk", Err: err}
	}
	return chunk, nil
}

func (r *chunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.backend.q(ctx).Query(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = ANY($1)`, idsToInt64(ids))
	if err != nil {
		return nil, &core.StoreError{Op: "get chunks", Err: err}
	}
	defer rows.Close()

	byID := make(map[core.ID]*core.Chunk)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan chunk", Err: err}
		}
		byID[chunk.Id] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "iterate chunks", Err: err}
	}
	out := make([]*core.Chunk, 0, len(byID))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (r *chunkRepository) GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	return r.chunksWhere(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE document_id = $1 ORDER BY page_number, id`,
		toInt64(documentID))
}

func (r *chunkRepository) GetChunksByPage(ctx context.Context, documentID core.ID, pageNumber int) ([]*core.Chunk, error) {
	return r.chunksWhere(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE document_id = $1 AND page_number = $2 ORDER BY id`,
		toInt64(documentID), pageNumber)
}

func (r *chunkRepository) GetChunksByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error) {
	rows, err := r.backend.q(ctx).Query(ctx,
		`SELECT id FROM chunks WHERE $1 = ANY(concept_ids) ORDER BY id`, toInt64(conceptID))
	if err != nil {
		return nil, &core.StoreError{Op: "chunks by concept", Err: err}
	}
	defer rows.Close()

	var out []core.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &core.StoreError{Op: "scan chunk id", Err: err}
		}
		out = append(out, fromInt64(id))
	}
	return out, rows.Err()
}

func (r *chunkRepository) GetAllChunks(ctx context.Context) ([]*core.Chunk, error) {
	return r.chunksWhere(ctx, `SELECT `+chunkColumns+` FROM chunks ORDER BY id`)
}

func (r *chunkRepository) chunksWhere(ctx context.Context, sql string, args ...any) ([]*core.Chunk, error) {
	rows, err := r.backend.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "query chunks", Err: err}
	}
	defer rows.Close()

	var out []*core.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan chunk", Err: err}
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}

func (r *chunkRepository) FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error) {
	return findSimilar(ctx, r.backend, "chunks", vector, minSimilarity, limit)
}

func (r *chunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

func (r *chunkRepository) Close() error {
	return nil
}
