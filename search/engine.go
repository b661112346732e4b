package search

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/gnosis/ai"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/expand"
	"github.com/poiesic/gnosis/navigate"
	"github.com/poiesic/gnosis/rank"
	"github.com/poiesic/gnosis/storage"
	"github.com/poiesic/gnosis/thesaurus"
)

const (
	defaultLimit         = 10
	defaultMinSimilarity = 0.30
	// oversampling factor for the vector candidate pass, so fusion has more
	// to choose from than the final result count
	candidateMultiplier = 4
)

// Engine provides hybrid semantic, keyword and conceptual search over the
// corpus.
type Engine struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	concepts  storage.ConceptRepository
	embedder  ai.Embedder
	thesaurus thesaurus.Thesaurus
	navigator *navigate.Navigator
	snapshots navigate.SnapshotProvider
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a search engine. The thesaurus may be nil; queries then
// run corpus-only.
func NewEngine(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	concepts storage.ConceptRepository,
	provider ai.AIProvider,
	th thesaurus.Thesaurus,
	navigator *navigate.Navigator,
	snapshots navigate.SnapshotProvider,
	opts ...Option,
) (*Engine, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if concepts == nil {
		return nil, ErrConceptRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if navigator == nil {
		return nil, ErrNavigatorRequired
	}
	if snapshots == nil {
		return nil, ErrSnapshotProviderRequired
	}

	e := &Engine{
		documents: documents,
		chunks:    chunks,
		concepts:  concepts,
		embedder:  provider.Embedder(),
		thesaurus: th,
		navigator: navigator,
		snapshots: snapshots,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

type queryOptions struct {
	limit         int
	minSimilarity float32
	gapThreshold  float64
	debug         bool
	monitor       SearchMonitor
}

// QueryOption adjusts a single query.
type QueryOption func(*queryOptions)

// WithLimit caps the number of results.
func WithLimit(n int) QueryOption {
	return func(o *queryOptions) { o.limit = n }
}

// WithMinSimilarity overrides the vector similarity floor for candidate
// gathering.
func WithMinSimilarity(min float32) QueryOption {
	return func(o *queryOptions) { o.minSimilarity = min }
}

// WithGapThreshold overrides the relative drop at which result clusters
// split. Values outside (0,1] fall back to the default.
func WithGapThreshold(threshold float64) QueryOption {
	return func(o *queryOptions) { o.gapThreshold = threshold }
}

// WithDebug attaches per-signal score breakdowns to results. Debug output
// never changes ranking.
func WithDebug() QueryOption {
	return func(o *queryOptions) { o.debug = true }
}

// WithMonitor registers a monitor receiving callbacks at each query stage.
func WithMonitor(m SearchMonitor) QueryOption {
	return func(o *queryOptions) { o.monitor = m }
}

func newQueryOptions(opts []QueryOption) *queryOptions {
	o := &queryOptions{
		limit:         defaultLimit,
		minSimilarity: defaultMinSimilarity,
		gapThreshold:  rank.DefaultGapThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.monitor == nil {
		o.monitor = &noopMonitor{}
	}
	return o
}

// DocumentHit is one document search result.
type DocumentHit struct {
	Document *core.Document
	Score    float64
	// Breakdown is populated only for debug queries.
	Breakdown *rank.Breakdown
	// Degraded is set when the thesaurus could not contribute.
	Degraded bool
}

// SearchDocuments finds the documents best matching the query, hybrid-scored
// and cut at the first natural score gap.
func (e *Engine) SearchDocuments(ctx context.Context, query string, opts ...QueryOption) ([]*DocumentHit, error) {
	if query == "" {
		return nil, core.NewValidationError("query", "must not be empty")
	}
	o := newQueryOptions(opts)
	o.monitor.Start(query)

	snap := e.snapshots.Snapshot()
	if snap == nil {
		return nil, navigate.ErrNotReady
	}

	expansion, queryVector, matches, err := e.gather(ctx, snap, query, expand.ModeGeneral, o,
		func(ctx context.Context, vec []float32, minSim float32, limit int) ([]core.Match, error) {
			return e.documents.FindSimilarDocuments(ctx, vec, minSim, limit)
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

	// union in documents reached through concept tags of expansion terms
	conceptIds := make([]uint64, 0)
	for _, term := range expansion.Terms {
		con, err := snap.Caches.Concepts.Resolve(term.Text)
		if err != nil {
			continue
		}
		docIds, err := e.documents.GetDocumentsByConcept(ctx, con.Id)
		if err != nil {
			return nil, err
		}
		for _, id := range docIds {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
				conceptIds = append(conceptIds, uint64(id))
			}
		}
	}
	o.monitor.AfterConceptMatch(conceptIds)

	docs, err := e.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		o.monitor.Finish(0)
		return nil, nil
	}

	keyword := rank.NewKeywordScorer(snap.Index)
	rawKeyword := make([]float64, len(docs))
	for i, doc := range docs {
		rawKeyword[i] = keyword.Score(doc.Title+" "+doc.Summary, expansion.Terms)
	}
	keywordSignals := rank.NormalizeKeyword(rawKeyword)

	type scoredDoc struct {
		doc       *core.Document
		score     float64
		keyword   float64
		breakdown *rank.Breakdown
	}
	ranked := make([]scoredDoc, 0, len(docs))
	for i, doc := range docs {
		signals := rank.Signals{
			Keyword:   keywordSignals[i],
			Literal:   rank.LiteralScore(doc.Title, query),
			Concept:   rank.ConceptOverlap(expansion, e.conceptNames(snap, doc.ConceptIds)),
			Thesaurus: rank.ThesaurusOverlap(expansion, doc.Title+" "+doc.Summary),
		}
		if sim, ok := vectorScores[doc.Id]; ok {
			signals.Vector = rank.VectorScore(float64(sim))
		} else if len(doc.Vector) > 0 && len(queryVector) > 0 {
			signals.Vector = rank.VectorScore(rank.CosineSimilarity(doc.Vector, queryVector))
		}
		score, breakdown := rank.DocumentDiscoveryProfile.Fuse(signals)
		ranked = append(ranked, scoredDoc{doc: doc, score: score, keyword: keywordSignals[i].Value, breakdown: breakdown})
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

	hits := make([]*DocumentHit, 0, keep)
	for _, r := range ranked[:keep] {
		hit := &DocumentHit{Document: r.doc, Score: r.score, Degraded: expansion.Degraded}
		if o.debug {
			hit.Breakdown = r.breakdown
		}
		hits = append(hits, hit)
	}
	o.monitor.Finish(len(hits))

	e.logger.Debug("document search complete",
		"query", query,
		"candidates", len(ranked),
		"results", len(hits))
	return hits, nil
}

// gather runs query expansion and the vector candidate pass in parallel.
func (e *Engine) gather(
	ctx context.Context,
	snap *navigate.Snapshot,
	query string,
	mode expand.Mode,
	o *queryOptions,
	similar func(ctx context.Context, vec []float32, minSim float32, limit int) ([]core.Match, error),
) (*expand.Expansion, []float32, []core.Match, error) {
	expander, err := expand.NewExpander(snap.Index, e.thesaurus)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		expansion   *expand.Expansion
		queryVector []float32
		matches     []core.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, err := e.embedder.EmbedText(gctx, query)
		if err != nil {
			e.logger.Error("error generating embedding for query", "query", query, "err", err)
			return err
		}
		queryVector = vec
		found, err := similar(gctx, vec, o.minSimilarity, o.limit*candidateMultiplier)
		if err != nil {
			return err
		}
		matches = found
		return nil
	})
	g.Go(func() error {
		exp, err := expander.Expand(gctx, query, mode)
		if err != nil {
			return err
		}
		expansion = exp
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	o.monitor.AfterExpansion(expansion)
	semanticIds := make([]uint64, len(matches))
	for i, m := range matches {
		semanticIds[i] = uint64(m.Id)
	}
	o.monitor.AfterSemanticSearch(semanticIds)
	return expansion, queryVector, matches, nil
}

// conceptNames maps tagged concept IDs to their normalized names via the
// concept cache.
func (e *Engine) conceptNames(snap *navigate.Snapshot, ids []core.ID) map[string]bool {
	names := make(map[string]bool, len(ids))
	for _, id := range ids {
		if con, err := snap.Caches.Concepts.Get(id); err == nil {
			names[con.Name] = true
		}
	}
	return names
}
