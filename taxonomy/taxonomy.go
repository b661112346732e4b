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

// Package taxonomy provides immutable in-memory caches over the concept
// lexicon and the category tree. Caches are built as a whole from a storage
// snapshot and swapped atomically; readers never see a partially built
// cache.
package taxonomy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/poiesic/gnosis/core"
)

// Caches bundles the concept and category caches built from one snapshot.
type Caches struct {
	Concepts   *ConceptCache
	Categories *CategoryCache
}

// Holder publishes a Caches snapshot to concurrent readers. Swapping in a
// new snapshot never blocks readers of the old one.
type Holder struct {
	p atomic.Pointer[Caches]
}

// Load returns the current snapshot, nil before the first Swap.
func (h *Holder) Load() *Caches {
	return h.p.Load()
}

// Swap publishes a new snapshot.
func (h *Holder) Swap(c *Caches) {
	h.p.Store(c)
}

// Build constructs both caches from full entity slices. Inputs are copied
// where mutation would otherwise leak; the returned caches are safe for
// concurrent use.
func Build(concepts []*core.Concept, categories []*core.Category, documents []*core.Document, chunks []*core.Chunk) *Caches {
	return &Caches{
		Concepts:   buildConceptCache(concepts),
		Categories: buildCategoryCache(categories, concepts, documents, chunks),
	}
}

// ConceptCache resolves concept names and synonyms to concepts without
// touching storage.
type ConceptCache struct {
	byID       map[core.ID]*core.Concept
	byCategory map[core.ID][]core.ID // category ID -> member concept IDs
	bySurface  map[string]core.ID    // normalized name or synonym -> concept ID
	allOrdered []*core.Concept
}

func buildConceptCache(concepts []*core.Concept) *ConceptCache {
	// deterministic build order so synonym collisions always resolve the
	// same way
	ordered := make([]*core.Concept, len(concepts))
	copy(ordered, concepts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	c := &ConceptCache{
		byID:       make(map[core.ID]*core.Concept, len(ordered)),
		byCategory: make(map[core.ID][]core.ID),
		bySurface:  make(map[string]core.ID, len(ordered)*2),
		allOrdered: ordered,
	}
	for _, con := range ordered {
		c.byID[con.Id] = con
		if _, taken := c.bySurface[con.Name]; !taken {
			c.bySurface[con.Name] = con.Id
		}
		if con.CategoryId != 0 {
			c.byCategory[con.CategoryId] = append(c.byCategory[con.CategoryId], con.Id)
		}
	}
	// synonyms map second so canonical names always win collisions
	for _, con := range ordered {
		for _, syn := range con.Synonyms {
			key := core.NormalizeName(syn)
			if _, taken := c.bySurface[key]; !taken {
				c.bySurface[key] = con.Id
			}
		}
	}
	return c
}

// Get returns the concept by ID.
func (c *ConceptCache) Get(id core.ID) (*core.Concept, error) {
	con, ok := c.byID[id]
	if !ok {
		return nil, core.NewNotFoundError("concept", fmt.Sprintf("%d", id))
	}
	return con, nil
}

// Resolve maps a name or synonym to its concept.
func (c *ConceptCache) Resolve(nameOrSynonym string) (*core.Concept, error) {
	id, ok := c.bySurface[core.NormalizeName(nameOrSynonym)]
	if !ok {
		return nil, core.NewNotFoundError("concept", nameOrSynonym)
	}
	return c.byID[id], nil
}

// HasSurface reports whether a normalized term is a known concept name or
// synonym.
func (c *ConceptCache) HasSurface(term string) bool {
	_, ok := c.bySurface[core.NormalizeName(term)]
	return ok
}

// All returns every concept ordered by name.
func (c *ConceptCache) All() []*core.Concept {
	return c.allOrdered
}

// InCategory returns the IDs of concepts directly assigned to a category,
// ordered by concept name.
func (c *ConceptCache) InCategory(categoryID core.ID) []core.ID {
	return c.byCategory[categoryID]
}

// Len returns the number of cached concepts.
func (c *ConceptCache) Len() int {
	return len(c.byID)
}

// CategorySort selects the ordering of ListCategories.
type CategorySort string

const (
	SortByName      CategorySort = "name"
	SortByDocuments CategorySort = "documents"
	SortByConcepts  CategorySort = "concepts"
)

// CategoryCache resolves categories by name, alias or ID and answers tree
// navigation queries.
type CategoryCache struct {
	byID      map[core.ID]*core.Category
	bySurface map[string]core.ID
	children  map[core.ID][]core.ID
	ordered   []*core.Category
}

func buildCategoryCache(categories []*core.Category, concepts []*core.Concept, documents []*core.Document, chunks []*core.Chunk) *CategoryCache {
	// aggregate stats are computed into copies so the storage-owned structs
	// stay untouched
	copies := make([]*core.Category, len(categories))
	for i, cat := range categories {
		dup := *cat
		dup.DocumentCount = 0
		dup.ChunkCount = 0
		dup.ConceptCount = 0
		copies[i] = &dup
	}
	sort.Slice(copies, func(i, j int) bool { return copies[i].Name < copies[j].Name })

	c := &CategoryCache{
		byID:      make(map[core.ID]*core.Category, len(copies)),
		bySurface: make(map[string]core.ID, len(copies)*2),
		children:  make(map[core.ID][]core.ID),
		ordered:   copies,
	}
	for _, cat := range copies {
		c.byID[cat.Id] = cat
		if _, taken := c.bySurface[core.NormalizeName(cat.Name)]; !taken {
			c.bySurface[core.NormalizeName(cat.Name)] = cat.Id
		}
		if cat.ParentId != 0 {
			c.children[cat.ParentId] = append(c.children[cat.ParentId], cat.Id)
		}
	}
	for _, cat := range copies {
		for _, alias := range cat.Aliases {
			key := core.NormalizeName(alias)
			if _, taken := c.bySurface[key]; !taken {
				c.bySurface[key] = cat.Id
			}
		}
	}

	for _, con := range concepts {
		if cat, ok := c.byID[con.CategoryId]; ok {
			cat.ConceptCount++
		}
	}
	chunksPerDoc := make(map[core.ID]int)
	for _, chunk := range chunks {
		chunksPerDoc[chunk.DocumentId]++
	}
	for _, doc := range documents {
		for _, catID := range doc.CategoryIds {
			if cat, ok := c.byID[catID]; ok {
				cat.DocumentCount++
				cat.ChunkCount += chunksPerDoc[doc.Id]
			}
		}
	}
	return c
}

// Get returns the category by ID.
func (c *CategoryCache) Get(id core.ID) (*core.Category, error) {
	cat, ok := c.byID[id]
	if !ok {
		return nil, core.NewNotFoundError("category", fmt.Sprintf("%d", id))
	}
	return cat, nil
}

// Resolve maps a name, alias or decimal ID string to its category.
func (c *CategoryCache) Resolve(ref string) (*core.Category, error) {
	if id, ok := c.bySurface[core.NormalizeName(ref)]; ok {
		return c.byID[id], nil
	}
	if raw, err := strconv.ParseUint(strings.TrimSpace(ref), 10, 64); err == nil {
		if cat, ok := c.byID[core.ID(raw)]; ok {
			return cat, nil
		}
	}
	return nil, core.NewNotFoundError("category", ref)
}

// Children returns the IDs of a category's direct children, ordered by name.
func (c *CategoryCache) Children(id core.ID) []core.ID {
	return c.children[id]
}

// AncestorPath returns the chain from the root down to the category itself.
// Broken parent links and cycles terminate the walk with an error.
func (c *CategoryCache) AncestorPath(id core.ID) ([]*core.Category, error) {
	var path []*core.Category
	seen := make(map[core.ID]bool)
	for cur := id; cur != 0; {
		if seen[cur] {
			return nil, fmt.Errorf("category %d: parent cycle detected", id)
		}
		seen[cur] = true
		cat, ok := c.byID[cur]
		if !ok {
			return nil, core.NewNotFoundError("category", fmt.Sprintf("%d", cur))
		}
		path = append(path, cat)
		cur = cat.ParentId
	}
	// walked child to root, callers want root first
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Related returns the categories linked by the non-hierarchical related
// graph, skipping dangling references.
func (c *CategoryCache) Related(id core.ID) []*core.Category {
	cat, ok := c.byID[id]
	if !ok {
		return nil
	}
	out := make([]*core.Category, 0, len(cat.RelatedIds))
	for _, rid := range cat.RelatedIds {
		if rel, ok := c.byID[rid]; ok {
			out = append(out, rel)
		}
	}
	return out
}

// List returns categories matching an optional case-insensitive substring
// filter, ordered by the requested sort, capped at limit when positive.
func (c *CategoryCache) List(sortBy CategorySort, search string, limit int) []*core.Category {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]*core.Category, 0, len(c.ordered))
	for _, cat := range c.ordered {
		if search != "" && !strings.Contains(strings.ToLower(cat.Name), search) {
			continue
		}
		out = append(out, cat)
	}
	switch sortBy {
	case SortByDocuments:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DocumentCount > out[j].DocumentCount })
	case SortByConcepts:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ConceptCount > out[j].ConceptCount })
	default:
		// already name-ordered
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of cached categories.
func (c *CategoryCache) Len() int {
	return len(c.ordered)
}
