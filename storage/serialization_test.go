package storage

import (
	"testing"

	"github.com/poiesic/gnosis/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The serializers are hand-written, so one round trip over fully populated
// entities guards the field order.

func TestRoundTrip_Concept(t *testing.T) {
	concept := &core.Concept{
		Id:            core.ConceptID("decorator pattern"),
		Name:          "decorator pattern",
		CategoryId:    core.CategoryID("software design"),
		Synonyms:      []string{"wrapper"},
		BroaderTerms:  []string{"structural pattern"},
		NarrowerTerms: []string{"logging decorator"},
		RelatedIds:    []core.ID{core.ConceptID("composite pattern")},
		Vector:        []float32{0.25, -0.5, 0.125},
		Weight:        0.8,
		ChunkCount:    12,
		DocumentCount: 2,
		Provenance:    core.ProvenanceCorpus,
	}

	got, err := UnmarshalConcept(MarshalConcept(concept))
	require.NoError(t, err)
	assert.Equal(t, concept, got)
}

func TestRoundTrip_Chunk(t *testing.T) {
	doc := core.IDFromContent("/corpus/design-patterns.pdf")
	chunk := &core.Chunk{
		Id:         core.IDFromContent("chunk text"),
		DocumentId: doc,
		PageNumber: 87,
		Text:       "The decorator pattern attaches additional responsibilities dynamically.",
		ConceptIds: []core.ID{core.ConceptID("decorator pattern")},
		Density:    6.25,
		Vector:     []float32{0.1, 0.2},
	}

	got, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestRoundTrip_DocumentAndCategory(t *testing.T) {
	doc := &core.Document{
		Id:          core.IDFromContent("/corpus/design-patterns.pdf"),
		Source:      "/corpus/design-patterns.pdf",
		Title:       "Design Patterns",
		Author:      "Gamma et al.",
		Year:        1994,
		Publisher:   "Addison-Wesley",
		Summary:     "Catalog of reusable object-oriented design patterns.",
		Vector:      []float32{0.5},
		ConceptIds:  []core.ID{core.ConceptID("decorator pattern")},
		CategoryIds: []core.ID{core.CategoryID("software design")},
		ContentHash: "b2:deadbeef",
	}

	gotDoc, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, gotDoc)

	cat := &core.Category{
		Id:            core.CategoryID("software design"),
		Name:          "software design",
		Description:   "Designing software structures",
		Aliases:       []string{"design"},
		ParentId:      core.CategoryID("engineering"),
		RelatedIds:    []core.ID{core.CategoryID("architecture")},
		DocumentCount: 3,
		ChunkCount:    120,
		ConceptCount:  44,
	}

	gotCat, err := UnmarshalCategory(MarshalCategory(cat))
	require.NoError(t, err)
	assert.Equal(t, cat, gotCat)
}

func TestRoundTrip_Page(t *testing.T) {
	doc := core.IDFromContent("doc")
	page := &core.Page{
		Id:         core.PageID(doc, 5),
		DocumentId: doc,
		Number:     5,
		ConceptIds: []core.ID{core.ConceptID("observer pattern")},
		Preview:    "Behavioral patterns define communication between objects.",
		Vector:     []float32{0.7, 0.1},
	}

	got, err := UnmarshalPage(MarshalPage(page))
	require.NoError(t, err)
	assert.Equal(t, page, got)
}
