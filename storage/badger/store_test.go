package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/gnosis/core"
	"github.com/poiesic/gnosis/storage"
)

func TestDocumentBasics(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	patterns := core.ConceptID("decorator pattern")
	design := core.CategoryID("software design")

	doc := &core.Document{
		Source:      "/corpus/design-patterns.pdf",
		Title:       "Design Patterns",
		Vector:      []float32{0.9, 0.1, 0.0},
		ConceptIds:  []core.ID{patterns},
		CategoryIds: []core.ID{design},
	}

	added, err := store.Documents.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	retrieved, err := store.Documents.GetDocument(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Title != "Design Patterns" {
		t.Fatalf("Expected 'Design Patterns', got '%s'", retrieved.Title)
	}

	// Missing documents surface ErrNotFound, never a zero value
	_, err = store.Documents.GetDocument(ctx, core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// Concept and category indexes
	byConcept, err := store.Documents.GetDocumentsByConcept(ctx, patterns)
	if err != nil {
		t.Fatalf("Failed concept index scan: %v", err)
	}
	if len(byConcept) != 1 || byConcept[0] != added[0].Id {
		t.Fatalf("Expected document in concept index, got %v", byConcept)
	}

	byCategory, err := store.Documents.GetDocumentsByCategory(ctx, design)
	if err != nil {
		t.Fatalf("Failed category index scan: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0] != added[0].Id {
		t.Fatalf("Expected document in category index, got %v", byCategory)
	}
}

func TestPagesByDocument_Order(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	docID := core.IDFromContent("/corpus/book.pdf")
	concept := core.ConceptID("observer pattern")

	// Insert out of order; scan must come back ordered by page number.
	for _, number := range []int{7, 2, 5} {
		page := &core.Page{
			DocumentId: docID,
			Number:     number,
			ConceptIds: []core.ID{concept},
			Preview:    "preview",
		}
		if _, err := store.Pages.AddPages(ctx, page); err != nil {
			t.Fatalf("Failed to add page %d: %v", number, err)
		}
	}

	pages, err := store.Pages.GetPagesByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("Failed to get pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}
	for i, want := range []int{2, 5, 7} {
		if pages[i].Number != want {
			t.Fatalf("Expected page %d at index %d, got %d", want, i, pages[i].Number)
		}
	}

	byConcept, err := store.Pages.GetPagesByConcept(ctx, concept)
	if err != nil {
		t.Fatalf("Failed to get pages by concept: %v", err)
	}
	if len(byConcept) != 3 {
		t.Fatalf("Expected 3 pages by concept, got %d", len(byConcept))
	}
}

func TestChunkIndexes(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	docID := core.IDFromContent("/corpus/book.pdf")
	concept := core.ConceptID("decorator pattern")

	chunks := []*core.Chunk{
		{DocumentId: docID, PageNumber: 1, Text: "first passage", ConceptIds: []core.ID{concept}},
		{DocumentId: docID, PageNumber: 2, Text: "second passage"},
		{DocumentId: docID, Text: "pageless passage", ConceptIds: []core.ID{concept}},
	}
	if _, err := store.Chunks.AddChunks(ctx, chunks...); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	byDoc, err := store.Chunks.GetChunksByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("Failed doc scan: %v", err)
	}
	if len(byDoc) != 3 {
		t.Fatalf("Expected 3 chunks for document, got %d", len(byDoc))
	}

	byPage, err := store.Chunks.GetChunksByPage(ctx, docID, 2)
	if err != nil {
		t.Fatalf("Failed page scan: %v", err)
	}
	if len(byPage) != 1 || byPage[0].Text != "second passage" {
		t.Fatalf("Expected only the page-2 chunk, got %d", len(byPage))
	}

	byConcept, err := store.Chunks.GetChunksByConcept(ctx, concept)
	if err != nil {
		t.Fatalf("Failed concept scan: %v", err)
	}
	if len(byConcept) != 2 {
		t.Fatalf("Expected 2 chunks for concept, got %d", len(byConcept))
	}
}

func TestFindSimilarChunks(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	docID := core.IDFromContent("/corpus/book.pdf")

	chunks := []*core.Chunk{
		{DocumentId: docID, Text: "about design", Vector: []float32{0.9, 0.1, 0.0}},
		{DocumentId: docID, Text: "about cooking", Vector: []float32{0.0, 0.1, 0.9}},
		{DocumentId: docID, Text: "no embedding yet"},
	}
	if _, err := store.Chunks.AddChunks(ctx, chunks...); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	matches, err := store.Chunks.FindSimilarChunks(ctx, []float32{1, 0, 0}, 0.5, 10)
	if err != nil {
		t.Fatalf("Failed similarity search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match above threshold, got %d", len(matches))
	}
	if matches[0].Id != chunks[0].Id {
		t.Fatalf("Expected the design chunk to match")
	}
}

func TestConceptByName(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	concept := &core.Concept{
		Name:   "Decorator Pattern", // stored canonicalized
		Weight: 0.9,
	}
	added, err := store.Concepts.AddConcepts(ctx, concept)
	if err != nil {
		t.Fatalf("Failed to add concept: %v", err)
	}
	if added[0].Name != "decorator pattern" {
		t.Fatalf("Expected canonical name, got %q", added[0].Name)
	}

	// Any spelling that normalizes to the same canonical name resolves.
	found, err := store.Concepts.FindConceptByName(ctx, "  DECORATOR   pattern ")
	if err != nil {
		t.Fatalf("Failed to find concept by name: %v", err)
	}
	if found.Id != added[0].Id {
		t.Fatalf("Expected same concept ID")
	}

	_, err = store.Concepts.FindConceptByName(ctx, "no such concept")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCategoryBasics(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	parent := &core.Category{Name: "engineering"}
	child := &core.Category{Name: "software design", ParentId: core.CategoryID("engineering")}
	if _, err := store.Categories.AddCategories(ctx, parent, child); err != nil {
		t.Fatalf("Failed to add categories: %v", err)
	}

	got, err := store.Categories.GetCategory(ctx, core.CategoryID("software design"))
	if err != nil {
		t.Fatalf("Failed to get category: %v", err)
	}
	if got.ParentId != parent.Id {
		t.Fatalf("Expected parent link to survive round trip")
	}

	all, err := store.Categories.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("Failed to list categories: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(all))
	}
}
