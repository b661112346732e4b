package search

import (
	"context"

	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/navigate"
	"github.com/poiesic/gnosis/taxonomy"
)

// SearchConcept resolves the query to a concept and assembles the sources
// and passages around it.
func (e *Engine) SearchConcept(ctx context.Context, query string, opts ...navigate.ExploreOption) (*navigate.Answer, error) {
	return e.navigator.Explore(ctx, query, opts...)
}

// CategoryInfo is one resolved category with its tree context.
type CategoryInfo struct {
	Category *core.Category
	// Path is the ancestor chain, root first, ending at the category itself.
	Path []*core.Category
	// Related holds the categories linked by the non-hierarchical graph.
	Related []*core.Category
	// ChildIds lists the direct children, ordered by name.
	ChildIds []core.ID
}

// ListCategories returns categories with their aggregate statistics,
// optionally filtered by a name substring, ordered by the requested sort.
func (e *Engine) ListCategories(sortBy taxonomy.CategorySort, filter string, limit int) ([]*core.Category, error) {
	snap := e.snapshots.Snapshot()
	if snap == nil {
		return nil, navigate.ErrNotReady
	}
	return snap.Caches.Categories.List(sortBy, filter, limit), nil
}

// ResolveCategory maps a name, alias or ID to a category with its ancestor
// path and related categories.
func (e *Engine) ResolveCategory(ref string) (*CategoryInfo, error) {
	snap := e.snapshots.Snapshot()
	if snap == nil {
		return nil, navigate.ErrNotReady
	}
	cat, err := snap.Caches.Categories.Resolve(ref)
	if err != nil {
		return nil, err
	}
	path, err := snap.Caches.Categories.AncestorPath(cat.Id)
	if err != nil {
		return nil, err
	}
	return &CategoryInfo{
		Category: cat,
		Path:     path,
		Related:  snap.Caches.Categories.Related(cat.Id),
		ChildIds: snap.Caches.Categories.Children(cat.Id),
	}, nil
}

// ConceptsInCategory returns the concepts directly assigned to a category,
// ordered by name.
func (e *Engine) ConceptsInCategory(ref string) ([]*core.Concept, error) {
	snap := e.snapshots.Snapshot()
	if snap == nil {
		return nil, navigate.ErrNotReady
	}
	cat, err := snap.Caches.Categories.Resolve(ref)
	if err != nil {
		return nil, err
	}
	ids := snap.Caches.Concepts.InCategory(cat.Id)
	out := make([]*core.Concept, 0, len(ids))
	for _, id := range ids {
		if con, err := snap.Caches.Concepts.Get(id); err == nil {
			out = append(out, con)
		}
	}
	return out, nil
}
