package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Id:     IDFromContent("design patterns"),
				Source: "/corpus/design-patterns.pdf",
				Title:  "Design Patterns",
			},
			wantErr: nil,
		},
		{
			name: "minimal document",
			doc: &Document{
				Source: "/corpus/untitled.txt",
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "missing source",
			doc:     &Document{Title: "Orphan"},
			wantErr: ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePage(t *testing.T) {
	doc := IDFromContent("doc")

	tests := []struct {
		name    string
		page    *Page
		wantErr error
	}{
		{
			name:    "valid page",
			page:    &Page{Id: PageID(doc, 3), DocumentId: doc, Number: 3},
			wantErr: nil,
		},
		{
			name:    "nil page",
			page:    nil,
			wantErr: ErrInvalidPage,
		},
		{
			name:    "missing document",
			page:    &Page{Number: 3},
			wantErr: ErrUnknownDocument,
		},
		{
			name:    "non-positive page number",
			page:    &Page{DocumentId: doc, Number: 0},
			wantErr: ErrInvalidPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePage(tt.page)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePage() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	doc := IDFromContent("doc")

	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{DocumentId: doc, Text: "a passage", Density: 1.5},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{DocumentId: doc},
			wantErr: ErrEmptyText,
		},
		{
			name:    "missing document",
			chunk:   &Chunk{Text: "a passage"},
			wantErr: ErrUnknownDocument,
		},
		{
			name:    "negative density",
			chunk:   &Chunk{DocumentId: doc, Text: "a passage", Density: -1},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConcept(t *testing.T) {
	tests := []struct {
		name    string
		concept *Concept
		wantErr error
	}{
		{
			name:    "valid concept",
			concept: &Concept{Id: ConceptID("decorator pattern"), Name: "decorator pattern"},
			wantErr: nil,
		},
		{
			name:    "valid concept without id",
			concept: &Concept{Name: "observer pattern"},
			wantErr: nil,
		},
		{
			name:    "nil concept",
			concept: nil,
			wantErr: ErrInvalidConcept,
		},
		{
			name:    "empty name",
			concept: &Concept{},
			wantErr: ErrEmptyName,
		},
		{
			name:    "non-canonical name",
			concept: &Concept{Name: "Decorator Pattern"},
			wantErr: ErrInvalidConcept,
		},
		{
			name:    "id does not match name",
			concept: &Concept{Id: 42, Name: "decorator pattern"},
			wantErr: ErrInvalidConcept,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConcept(tt.concept)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateConcept() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateConcept() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	id := CategoryID("software design")

	tests := []struct {
		name     string
		category *Category
		wantErr  error
	}{
		{
			name:     "valid category",
			category: &Category{Id: id, Name: "software design"},
			wantErr:  nil,
		},
		{
			name:     "nil category",
			category: nil,
			wantErr:  ErrInvalidCategory,
		},
		{
			name:     "empty name",
			category: &Category{Id: id},
			wantErr:  ErrEmptyName,
		},
		{
			name:     "self parent",
			category: &Category{Id: id, Name: "software design", ParentId: id},
			wantErr:  ErrInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategory(tt.category)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCategory() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCategory() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	t.Run("not found carries identifier", func(t *testing.T) {
		err := NewNotFoundError("category", "no-such-category")
		if err.Error() != `category not found: "no-such-category"` {
			t.Errorf("unexpected message: %s", err.Error())
		}
		if !IsNotFound(err) {
			t.Errorf("IsNotFound() = false for NotFoundError")
		}
	})

	t.Run("store error hides cause", func(t *testing.T) {
		cause := errors.New("badger: level compaction stalled")
		err := NewStoreError("document lookup", cause)
		if !errors.Is(err, cause) {
			t.Errorf("StoreError should unwrap to its cause")
		}
		if msg := err.Error(); msg != "internal store error during document lookup" {
			t.Errorf("StoreError message leaks detail: %s", msg)
		}
	})

	t.Run("validation error names the field", func(t *testing.T) {
		err := NewValidationError("query", "query text is required")
		if err.Error() != "validation failed: query: query text is required" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})
}
