package search

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/expand"
	"github.com/poiesic/gnosis/navigate"
	"github.com/poiesic/gnosis/rank"
)

// ChunkHit is one passage search result.
type ChunkHit struct {
	Chunk *core.Chunk
	Score float64
	// Breakdown is populated only for debug queries.
	Breakdown *rank.Breakdown
	Degraded  bool
}

// SearchChunksInDocument finds the best passages for a query within one
// document. The document may be referenced by decimal ID, source locator or
// title.
func (e *Engine) SearchChunksInDocument(ctx context.Context, docRef, query string, opts ...QueryOption) ([]*ChunkHit, error) {
	if query == "" {
		return nil, core.NewValidationError("query", "must not be empty")
	}
	if docRef == "" {
		return nil, core.NewValidationError("document", "a document reference is required")
	}
	o := newQueryOptions(opts)
	o.monitor.Start(query)

	snap := e.snapshots.Snapshot()
	if snap == nil {
		return nil, navigate.ErrNotReady
	}

	doc, err := e.resolveDocument(ctx, docRef)
	if err != nil {
		return nil, err
	}

	chunks, err := e.chunks.GetChunksByDocument(ctx, doc.Id)
	if err != nil {
		return nil, err
	}

	expander, err := expand.NewExpander(snap.Index, e.thesaurus)
	if err != nil {
		return nil, err
	}
	expansion, err := expander.Expand(ctx, query, expand.ModeCorpus)
	if err != nil {
		return nil, err
	}
	o.monitor.AfterExpansion(expansion)

	queryVector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	hits := e.scoreChunks(snap, chunks, expansion, queryVector, nil, o)
	o.monitor.Finish(len(hits))
	return hits, nil
}

// SearchChunksAcrossCorpus finds the best passages for a query over the
// whole corpus.
func (e *Engine) SearchChunksAcrossCorpus(ctx context.Context, query string, opts ...QueryOption) ([]*ChunkHit, error) {
	if query == "" {
		return nil, core.NewValidationError("query", "must not be empty")
	}
	o := newQueryOptions(opts)
	o.monitor.Start(query)

	snap := e.snapshots.Snapshot()
	if snap == nil {
		return nil, navigate.ErrNotReady
	}

	expansion, queryVector, matches, err := e.gather(ctx, snap, query, expand.ModeCorpus, o,
		func(ctx context.Context, vec []float32, minSim float32, limit int) ([]core.Match, error) {
			return e.chunks.FindSimilarChunks(ctx, vec, minSim, limit)
		})
	if err != nil {
		return nil, err
	}

	vectorScores := make(map[core.ID]float32, len(matches))
	ids := make([]core.ID, 0, len(matches))
	seen := make(map[core.ID]bool)
	for _, m := range matches {
		vectorScores[m.Id] = m.Score
		ids = append(ids, m.Id)
		seen[m.Id] = true
	}

	conceptIds := make([]uint64, 0)
	for _, term := range expansion.Terms {
		con, err := snap.Caches.Concepts.Resolve(term.Text)
		if err != nil {
			continue
		}
		chunkIds, err := e.chunks.GetChunksByConcept(ctx, con.Id)
		if err != nil {
			return nil, err
		}
		for _, id := range chunkIds {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
				conceptIds = append(conceptIds, uint64(id))
			}
		}
	}
	o.monitor.AfterConceptMatch(conceptIds)

	chunks, err := e.chunks.GetChunks(ctx, ids...)
	if err != nil {
		return nil, err
	}

	hits := e.scoreChunks(snap, chunks, expansion, queryVector, vectorScores, o)
	o.monitor.Finish(len(hits))
	return hits, nil
}

// scoreChunks fuses the passage signals, orders the results and cuts at the
// first score gap.
func (e *Engine) scoreChunks(
	snap *navigate.Snapshot,
	chunks []*core.Chunk,
	expansion *expand.Expansion,
	queryVector []float32,
	vectorScores map[core.ID]float32,
	o *queryOptions,
) []*ChunkHit {
	if len(chunks) == 0 {
		return nil
	}

	keyword := rank.NewKeywordScorer(snap.Index)
	rawKeyword := make([]float64, len(chunks))
	for i, chunk := range chunks {
		rawKeyword[i] = keyword.Score(chunk.Text, expansion.Terms)
	}
	keywordSignals := rank.NormalizeKeyword(rawKeyword)

	type scoredChunk struct {
		chunk     *core.Chunk
		score     float64
		keyword   float64
		breakdown *rank.Breakdown
	}
	ranked := make([]scoredChunk, 0, len(chunks))
	for i, chunk := range chunks {
		signals := rank.Signals{
			Keyword:   keywordSignals[i],
			Concept:   rank.ConceptOverlap(expansion, e.conceptNames(snap, chunk.ConceptIds)),
			Thesaurus: rank.ThesaurusOverlap(expansion, chunk.Text),
		}
		if sim, ok := vectorScores[chunk.Id]; ok {
			signals.Vector = rank.VectorScore(float64(sim))
		} else if len(chunk.Vector) > 0 && len(queryVector) > 0 {
			signals.Vector = rank.VectorScore(rank.CosineSimilarity(chunk.Vector, queryVector))
		}
		score, breakdown := rank.PassageProfile.Fuse(signals)
		ranked = append(ranked, scoredChunk{chunk: chunk, score: score, keyword: keywordSignals[i].Value, breakdown: breakdown})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].keyword > ranked[j].keyword
	})

	scores := make([]float64, len(ranked))
	for i, r := range ranked {
		scores[i] = r.score
	}
	o.monitor.AfterFusion(scores)

	keep := rank.ClusterByGap(scores, o.gapThreshold)
	o.monitor.AfterClustering(keep)
	if o.limit > 0 && keep > o.limit {
		keep = o.limit
	}

	hits := make([]*ChunkHit, 0, keep)
	for _, r := range ranked[:keep] {
		hit := &ChunkHit{Chunk: r.chunk, Score: r.score, Degraded: expansion.Degraded}
		if o.debug {
			hit.Breakdown = r.breakdown
		}
		hits = append(hits, hit)
	}
	return hits
}

// resolveDocument maps a reference to a stored document. Decimal IDs are
// tried first, then source locator and title matches.
func (e *Engine) resolveDocument(ctx context.Context, ref string) (*core.Document, error) {
	if raw, err := strconv.ParseUint(strings.TrimSpace(ref), 10, 64); err == nil {
		if doc, err := e.documents.GetDocument(ctx, core.ID(raw)); err == nil {
			return doc, nil
		}
	}

	docs, err := e.documents.GetAllDocuments(ctx)
	if err != nil {
		return nil, err
	}
	needle := core.NormalizeName(ref)
	for _, doc := range docs {
		if core.NormalizeName(doc.Source) == needle || core.NormalizeName(doc.Title) == needle {
			return doc, nil
		}
	}
	return nil, core.NewNotFoundError("document", ref)
}
