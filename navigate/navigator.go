// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package navigate implements concept-centric exploration: resolve a query
// to one concept, walk its relation edges, and assemble the documents,
// pages and densest passages around it.
package navigate

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/gnosis/ai"
	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/expand"
	"github.com/poiesic/gnosis/index"
	"github.com/poiesic/gnosis/rank"
	"github.com/poiesic/gnosis/storage"
	"github.com/poiesic/gnosis/taxonomy"
	"github.com/poiesic/gnosis/thesaurus"
)

// Snapshot bundles the rebuildable in-memory structures one query runs
// against. A query takes a snapshot once and never mixes generations.
type Snapshot struct {
	Index  *index.TermIndex
	Caches *taxonomy.Caches
}

// SnapshotProvider yields the current snapshot. Implementations swap
// snapshots atomically during rebuilds.
type SnapshotProvider interface {
	Snapshot() *Snapshot
}

// SourceClass tells why a document was included in an answer.
type SourceClass string

const (
	// SourcePrimary marks documents tagged with the resolved concept itself.
	SourcePrimary SourceClass = "primary"
	// SourceRelated marks documents reached through a relation edge.
	SourceRelated SourceClass = "related"
)

// Source is one document backing an answer.
type Source struct {
	Document       *core.Document
	Classification SourceClass
	// ViaConcept names the related concept through which a related source
	// was reached. Empty for primary sources.
	ViaConcept string
	// Pages lists the page numbers on which the concept appears in this
	// document, ascending.
	Pages []int
}

// Passage is one scored chunk of an answer, densest first.
type Passage struct {
	Chunk      *core.Chunk
	DocumentId core.ID
	Density    float32
}

// Answer is the assembled result of exploring one concept.
type Answer struct {
	Concept    *core.Concept
	Confidence float64
	Related    []*core.Concept
	Sources    []Source
	Passages   []Passage
	// Degraded is set when the thesaurus could not contribute to resolution.
	Degraded bool
}

const (
	defaultMaxSources      = 8
	defaultMaxPassages     = 12
	defaultPerSource       = 3
	defaultMinConfidence   = 0.25
	conceptCandidateLimit  = 24
	conceptVectorThreshold = 0.30
)

type exploreOptions struct {
	maxSources    int
	maxPassages   int
	perSource     int
	sourceFilter  string
	minConfidence float64
}

// ExploreOption adjusts one exploration.
type ExploreOption func(*exploreOptions)

// WithMaxSources caps the number of source documents in the answer.
func WithMaxSources(n int) ExploreOption {
	return func(o *exploreOptions) { o.maxSources = n }
}

// WithMaxPassages caps the total number of passages in the answer.
func WithMaxPassages(n int) ExploreOption {
	return func(o *exploreOptions) { o.maxPassages = n }
}

// WithPassagesPerSource caps how many passages a single document may
// contribute.
func WithPassagesPerSource(n int) ExploreOption {
	return func(o *exploreOptions) { o.perSource = n }
}

// WithSourceFilter restricts sources to documents whose title or source
// locator contains the given substring, case-insensitively.
func WithSourceFilter(filter string) ExploreOption {
	return func(o *exploreOptions) { o.sourceFilter = filter }
}

// WithMinConfidence overrides the resolution confidence floor.
func WithMinConfidence(min float64) ExploreOption {
	return func(o *exploreOptions) { o.minConfidence = min }
}

// Navigator resolves queries to concepts and assembles answers around them.
type Navigator struct {
	documents storage.DocumentRepository
	pages     storage.PageRepository
	chunks    storage.ChunkRepository
	concepts  storage.ConceptRepository
	embedder  ai.Embedder
	thesaurus thesaurus.Thesaurus
	snapshots SnapshotProvider
	logger    *slog.Logger
}

// Option configures a Navigator.
type Option func(*Navigator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// NewNavigator creates a navigator over the given repositories. The
// thesaurus may be nil; exploration then runs corpus-only.
func NewNavigator(
	documents storage.DocumentRepository,
	pages storage.PageRepository,
	chunks storage.ChunkRepository,
	concepts storage.ConceptRepository,
	provider ai.AIProvider,
	th thesaurus.Thesaurus,
	snapshots SnapshotProvider,
	opts ...Option,
) (*Navigator, error) {
	if documents == nil || pages == nil || chunks == nil || concepts == nil {
		return nil, ErrRepositoriesRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if snapshots == nil {
		return nil, ErrSnapshotProviderRequired
	}

	n := &Navigator{
		documents: documents,
		pages:     pages,
		chunks:    chunks,
		concepts:  concepts,
		embedder:  provider.Embedder(),
		thesaurus: th,
		snapshots: snapshots,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Explore resolves the query to a concept and assembles the answer around
// it. Returns a not-found error when no concept reaches the confidence
// floor.
func (n *Navigator) Explore(ctx context.Context, query string, opts ...ExploreOption) (*Answer, error) {
	if query == "" {
		return nil, core.NewValidationError("query", "must not be empty")
	}
	o := exploreOptions{
		maxSources:    defaultMaxSources,
		maxPassages:   defaultMaxPassages,
		perSource:     defaultPerSource,
		minConfidence: defaultMinConfidence,
	}
	for _, opt := range opts {
		opt(&o)
	}

	snap := n.snapshots.Snapshot()
	if snap == nil {
		return nil, ErrNotReady
	}

	resolved, err := n.resolve(ctx, query, snap, o.minConfidence)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Concept:    resolved.concept,
		Confidence: resolved.confidence,
		Degraded:   resolved.degraded,
	}

	related, err := n.concepts.GetConcepts(ctx, resolved.concept.RelatedIds...)
	if err != nil {
		return nil, err
	}
	answer.Related = related

	if err := n.collectSources(ctx, answer, &o); err != nil {
		return nil, err
	}
	if err := n.collectPassages(ctx, answer, &o); err != nil {
		return nil, err
	}

	n.logger.Debug("exploration complete",
		"query", query,
		"concept", answer.Concept.Name,
		"confidence", answer.Confidence,
		"sources", len(answer.Sources),
		"passages", len(answer.Passages))
	return answer, nil
}

type resolution struct {
	concept    *core.Concept
	confidence float64
	degraded   bool
}

// resolve scores candidate concepts against the query and returns the best
// one above the confidence floor.
func (n *Navigator) resolve(ctx context.Context, query string, snap *Snapshot, minConfidence float64) (*resolution, error) {
	var (
		queryVector []float32
		expansion   *expand.Expansion
		matches     []core.Match
	)

	expander, err := expand.NewExpander(snap.Index, n.thesaurus)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, err := n.embedder.EmbedText(gctx, query)
		if err != nil {
			n.logger.Error("error generating embedding for query", "query", query, "err", err)
			return err
		}
		queryVector = vec
		sims, err := n.concepts.FindSimilarConcepts(gctx, vec, conceptVectorThreshold, conceptCandidateLimit)
		if err != nil {
			return err
		}
		matches = sims
		return nil
	})
	g.Go(func() error {
		exp, err := expander.Expand(gctx, query, expand.ModeCorpus)
		if err != nil {
			return err
		}
		expansion = exp
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectorScores := make(map[core.ID]float32, len(matches))
	candidateIds := make([]core.ID, 0, len(matches)+4)
	seen := make(map[core.ID]bool, len(matches)+4)
	for _, m := range matches {
		vectorScores[m.Id] = m.Score
		candidateIds = append(candidateIds, m.Id)
		seen[m.Id] = true
	}

	// surface lookups catch exact names and synonyms the vector scan missed
	if con, err := snap.Caches.Concepts.Resolve(query); err == nil && !seen[con.Id] {
		candidateIds = append(candidateIds, con.Id)
		seen[con.Id] = true
	}
	for _, term := range expansion.Terms {
		if con, err := snap.Caches.Concepts.Resolve(term.Text); err == nil && !seen[con.Id] {
			candidateIds = append(candidateIds, con.Id)
			seen[con.Id] = true
		}
	}

	if len(candidateIds) == 0 {
		return nil, core.NewNotFoundError("concept", query)
	}

	candidates, err := n.concepts.GetConcepts(ctx, candidateIds...)
	if err != nil {
		return nil, err
	}

	keyword := rank.NewKeywordScorer(snap.Index)
	rawKeyword := make([]float64, len(candidates))
	for i, con := range candidates {
		rawKeyword[i] = keyword.Score(surfaceText(con), expansion.Terms)
	}
	keywordSignals := rank.NormalizeKeyword(rawKeyword)

	type scored struct {
		concept *core.Concept
		score   float64
		keyword float64
	}
	ranked := make([]scored, 0, len(candidates))
	for i, con := range candidates {
		signals := rank.Signals{
			Keyword:   keywordSignals[i],
			Literal:   rank.LiteralScoreAny(query, append([]string{con.Name}, con.Synonyms...)...),
			Thesaurus: rank.ThesaurusOverlap(expansion, surfaceText(con)),
		}
		if sim, ok := vectorScores[con.Id]; ok {
			signals.Vector = rank.VectorScore(float64(sim))
		} else if len(con.Vector) > 0 && len(queryVector) > 0 {
			signals.Vector = rank.VectorScore(rank.CosineSimilarity(con.Vector, queryVector))
		}
		score, _ := rank.ConceptResolutionProfile.Fuse(signals)
		ranked = append(ranked, scored{concept: con, score: score, keyword: keywordSignals[i].Value})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].keyword > ranked[j].keyword
	})

	best := ranked[0]
	if best.score < minConfidence {
		return nil, core.NewNotFoundError("concept", query)
	}
	return &resolution{
		concept:    best.concept,
		confidence: best.score,
		degraded:   expansion.Degraded,
	}, nil
}

// surfaceText joins a concept's name and synonyms for keyword scoring.
func surfaceText(con *core.Concept) string {
	text := con.Name
	for _, syn := range con.Synonyms {
		text += " " + syn
	}
	return text
}

// collectSources gathers the documents backing an answer, primary before
// related, each annotated with the pages the relevant concept appears on.
func (n *Navigator) collectSources(ctx context.Context, answer *Answer, o *exploreOptions) error {
	type edge struct {
		conceptID core.ID
		class     SourceClass
		via       string
	}
	edges := []edge{{conceptID: answer.Concept.Id, class: SourcePrimary}}
	for _, rel := range answer.Related {
		edges = append(edges, edge{conceptID: rel.Id, class: SourceRelated, via: rel.Name})
	}

	seen := make(map[core.ID]bool)
	for _, e := range edges {
		docIds, err := n.documents.GetDocumentsByConcept(ctx, e.conceptID)
		if err != nil {
			return err
		}
		docs, err := n.documents.GetDocuments(ctx, docIds...)
		if err != nil {
			return err
		}

		pagesByDoc := make(map[core.ID][]int)
		conceptPages, err := n.pages.GetPagesByConcept(ctx, e.conceptID)
		if err != nil {
			return err
		}
		for _, p := range conceptPages {
			pagesByDoc[p.DocumentId] = append(pagesByDoc[p.DocumentId], p.Number)
		}

		for _, doc := range docs {
			if seen[doc.Id] || !matchesFilter(doc, o.sourceFilter) {
				continue
			}
			seen[doc.Id] = true
			nums := pagesByDoc[doc.Id]
			sort.Ints(nums)
			answer.Sources = append(answer.Sources, Source{
				Document:       doc,
				Classification: e.class,
				ViaConcept:     e.via,
				Pages:          nums,
			})
			if o.maxSources > 0 && len(answer.Sources) >= o.maxSources {
				return nil
			}
		}
	}
	return nil
}

// collectPassages picks the densest chunks tagged with the resolved concept
// from the answer's source documents.
func (n *Navigator) collectPassages(ctx context.Context, answer *Answer, o *exploreOptions) error {
	chunkIds, err := n.chunks.GetChunksByConcept(ctx, answer.Concept.Id)
	if err != nil {
		return err
	}
	chunks, err := n.chunks.GetChunks(ctx, chunkIds...)
	if err != nil {
		return err
	}

	inAnswer := make(map[core.ID]bool, len(answer.Sources))
	for _, src := range answer.Sources {
		inAnswer[src.Document.Id] = true
	}

	eligible := make([]*core.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if inAnswer[chunk.DocumentId] {
			eligible = append(eligible, chunk)
		}
	}
	// densest passages first; page order breaks density ties
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Density != eligible[j].Density {
			return eligible[i].Density > eligible[j].Density
		}
		return eligible[i].PageNumber < eligible[j].PageNumber
	})

	perDoc := make(map[core.ID]int)
	for _, chunk := range eligible {
		if o.perSource > 0 && perDoc[chunk.DocumentId] >= o.perSource {
			continue
		}
		perDoc[chunk.DocumentId]++
		answer.Passages = append(answer.Passages, Passage{
			Chunk:      chunk,
			DocumentId: chunk.DocumentId,
			Density:    chunk.Density,
		})
		if o.maxPassages > 0 && len(answer.Passages) >= o.maxPassages {
			break
		}
	}
	return nil
}

func matchesFilter(doc *core.Document, filter string) bool {
	if filter == "" {
		return true
	}
	needle := core.NormalizeName(filter)
	return strings.Contains(core.NormalizeName(doc.Title), needle) ||
		strings.Contains(core.NormalizeName(doc.Source), needle)
}
