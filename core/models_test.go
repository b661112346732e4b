package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases",
			input: "Decorator Pattern",
			want:  "decorator pattern",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  observer pattern  ",
			want:  "observer pattern",
		},
		{
			name:  "collapses internal whitespace",
			input: "dependency \t injection",
			want:  "dependency injection",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConceptID_Deterministic(t *testing.T) {
	// Names that normalize identically must collide; distinct names must not.
	id1 := ConceptID("Decorator Pattern")
	id2 := ConceptID("  decorator   pattern ")
	if id1 != id2 {
		t.Errorf("ConceptID() differs for equivalent names: %d vs %d", id1, id2)
	}

	other := ConceptID("observer pattern")
	if id1 == other {
		t.Errorf("ConceptID() collided for distinct names")
	}
}

func TestPageID_Deterministic(t *testing.T) {
	doc := IDFromContent("some book")

	if PageID(doc, 12) != PageID(doc, 12) {
		t.Errorf("PageID() not deterministic")
	}
	if PageID(doc, 12) == PageID(doc, 13) {
		t.Errorf("PageID() collided for different page numbers")
	}
	if PageID(doc, 12) == PageID(IDFromContent("other book"), 12) {
		t.Errorf("PageID() collided for different documents")
	}
}

func TestComputeDensity(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		conceptCount int
		want         float32
	}{
		{
			name:         "no concepts",
			text:         "some text here",
			conceptCount: 0,
			want:         0,
		},
		{
			name:         "one concept in four words",
			text:         "alpha beta gamma delta",
			conceptCount: 1,
			want:         25,
		},
		{
			name:         "empty text clamps word count",
			text:         "",
			conceptCount: 2,
			want:         200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeDensity(tt.text, tt.conceptCount); got != tt.want {
				t.Errorf("ComputeDensity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeDensity_Monotonic(t *testing.T) {
	text := "a chunk discussing several interrelated topics in moderate depth"
	prev := ComputeDensity(text, 1)
	for count := 2; count <= 8; count++ {
		cur := ComputeDensity(text, count)
		if cur <= prev {
			t.Errorf("density not monotonic: %v -> %v at count %d", prev, cur, count)
		}
		prev = cur
	}
}
