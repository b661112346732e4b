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

type conceptRepository struct {
	backend *Backend
}

// NewConceptRepository creates a concept repository over a postgres backend.
func NewConceptRepository(backend *Backend) (storage.ConceptRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &conceptRepository{backend: backend}, nil
}

const conceptColumns = `id, name, category_id, synonyms, broader_terms, narrower_terms, related_ids, embedding, weight, chunk_count, document_count, provenance`

func (r *conceptRepository) AddConcepts(ctx context.Context, concepts ...*core.Concept) ([]*core.Concept, error) {
	q := r.backend.q(ctx)
	for _, con := range concepts {
		con.Name = core.NormalizeName(con.Name)
		con.Id = core.ConceptID(con.Name)
		if err := core.ValidateConcept(con); err != nil {
			return nil, err
		}
		_, err := q.Exec(ctx, `
			INSERT INTO concepts (`+conceptColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				category_id = EXCLUDED.category_id,
				synonyms = EXCLUDED.synonyms,
				broader_terms = EXCLUDED.broader_terms,
				narrower_terms = EXCLUDED.narrower_terms,
				related_ids = EXCLUDED.related_ids,
				embedding = EXCLUDED.embedding,
				weight = EXCLUDED.weight,
				chunk_count = EXCLUDED.chunk_count,
				document_count = EXCLUDED.document_count,
				provenance = EXCLUDED.provenance`,
			toInt64(con.Id), con.Name, toInt64(con.CategoryId),
			con.Synonyms, con.BroaderTerms, con.NarrowerTerms,
			idsToInt64(con.RelatedIds), vectorParam(con.Vector), con.Weight,
			con.ChunkCount, con.DocumentCount, int(con.Provenance))
		if err != nil {
			return nil, &core.StoreError{Op: "add concepts", Err: err}
		}
	}
	return concepts, nil
}

func scanConcept(row pgx.Row) (*core.Concept, error) {
	var (
		con        core.Concept
		id         int64
		categoryID int64
		relatedIds []int64
		embedding  *pgvector.Vector
		provenance int
	)
	err := row.Scan(&id, &con.Name, &categoryID, &con.Synonyms,
		&con.BroaderTerms, &con.NarrowerTerms, &relatedIds, &embedding,
		&con.Weight, &con.ChunkCount, &con.DocumentCount, &provenance)
	if err != nil {
		return nil, err
	}
	con.Id = fromInt64(id)
	con.CategoryId = fromInt64(categoryID)
	con.RelatedIds = int64ToIDs(relatedIds)
	con.Vector = vectorValue(embedding)
	con.Provenance = core.Provenance(provenance)
	return &con, nil
}

func (r *conceptRepository) GetConcept(ctx context.Context, id core.ID) (*core.Concept, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+conceptColumns+` FROM concepts WHERE id = $1`, toInt64(id))
	con, err := scanConcept(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("concept %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, &core.StoreError{Op: "get concept", Err: err}
	}
	return con, nil
}

func (r *conceptRepository) GetConcepts(ctx context.Context, ids ...core.ID) ([]*core.Concept, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.backend.q(ctx).Query(ctx,
		`SELECT `+conceptColumns+` FROM concepts WHERE id = ANY($1)`, idsToInt64(ids))
	if err != nil {
		return nil, &core.StoreError{Op: "get concepts", Err: err}
	}
	defer rows.Close()

	byID := make(map[core.ID]*core.Concept)
	for rows.Next() {
		con, err := scanConcept(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan concept", Err: err}
		}
		byID[con.Id] = con
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "iterate concepts", Err: err}
	}
	out := make([]*core.Concept, 0, len(byID))
	for _, id := range ids {
		if con, ok := byID[id]; ok {
			out = append(out, con)
		}
	}
	return out, nil
}

// FindConceptByName resolves the canonical name to its derived ID, so the
// lookup is a primary key fetch rather than a name scan.
func (r *conceptRepository) FindConceptByName(ctx context.Context, name string) (*core.Concept, error) {
	return r.GetConcept(ctx, core.ConceptID(name))
}

func (r *conceptRepository) GetAllConcepts(ctx context.Context) ([]*core.Concept, error) {
	rows, err := r.backend.q(ctx).Query(ctx,
		`SELECT `+conceptColumns+` FROM concepts ORDER BY name`)
	if err != nil {
		return nil, &core.StoreError{Op: "get all concepts", Err: err}
	}
	defer rows.Close()

	var out []*core.Concept
	for rows.Next() {
		con, err := scanConcept(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan concept", Err: err}
		}
		out = append(out, con)
	}
	return out, rows.Err()
}

func (r *conceptRepository) FindSimilarConcepts(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.Match, error) {
	return findSimilar(ctx, r.backend, "concepts", vector, minSimilarity, limit)
}

func (r *conceptRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

func (r *conceptRepository) Close() error {
	return nil
}
