package search

import "github.com/poiesic/gnosis/expand"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a query.
// Monitors observe only; they never influence ranking.
type SearchMonitor interface {
	Start(query string)
	AfterExpansion(expansion *expand.Expansion)
	AfterSemanticSearch(ids []uint64)
	AfterConceptMatch(ids []uint64)
	AfterFusion(scores []float64)
	AfterClustering(kept int)
	Finish(results int)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterExpansion(_ *expand.Expansion)  {}
func (n *noopMonitor) AfterSemanticSearch(_ []uint64)      {}
func (n *noopMonitor) AfterConceptMatch(_ []uint64)        {}
func (n *noopMonitor) AfterFusion(_ []float64)             {}
func (n *noopMonitor) AfterClustering(_ int)               {}
func (n *noopMonitor) Finish(_ int)                        {}
