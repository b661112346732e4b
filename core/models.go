package core

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing, so entities with identical
// canonical content always carry identical IDs across rebuilds.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NormalizeName canonicalizes a concept or category name: lower-cased,
// surrounding whitespace trimmed, internal runs of whitespace collapsed.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ConceptID derives the ID of a concept from its canonical name.
// The same normalized name always yields the same ID, enabling ID-based
// joins without a synchronized sequence.
func ConceptID(name string) ID {
	return IDFromContent(NormalizeName(name))
}

// CategoryID derives the ID of a category from its canonical name.
func CategoryID(name string) ID {
	return IDFromContent("category:" + NormalizeName(name))
}

// PageID derives the ID of a page from its owning document and page number.
func PageID(documentID ID, number int) ID {
	return IDFromContent(strconv.FormatUint(uint64(documentID), 10) + ":" + strconv.Itoa(number))
}

// Provenance records how a concept's enrichment fields were produced.
type Provenance int

const (
	// ProvenanceCorpus marks concepts enriched from corpus statistics.
	ProvenanceCorpus Provenance = iota + 1
	// ProvenanceThesaurus marks concepts enriched from the lexical thesaurus.
	ProvenanceThesaurus
)

// Document represents one source text in the corpus.
// Created at ingestion; concept and category sets are mutated only by
// re-extraction, immutable otherwise.
type Document struct {
	Id          ID
	Source      string // source locator (path, URL)
	Title       string
	Author      string
	Year        int
	Publisher   string
	Summary     string
	Vector      []float32 // summary embedding for semantic search
	ConceptIds  []ID
	CategoryIds []ID
	ContentHash string
}

// Page represents one page of a document.
// A page belongs to exactly one document; its ID is derived from the
// document ID and page number via PageID.
type Page struct {
	Id         ID
	DocumentId ID
	Number     int
	ConceptIds []ID
	Preview    string
	Vector     []float32
}

// Chunk represents a retrievable text passage.
type Chunk struct {
	Id         ID
	DocumentId ID
	PageNumber int // 0 when the owning page is unknown
	Text       string
	ConceptIds []ID
	Density    float32 // concept density, see ComputeDensity
	Vector     []float32
}

// ComputeDensity derives the concept density of a chunk: the number of
// distinct tagged concepts relative to the chunk's length in words, scaled
// by 100. Adding a distinct concept tag never decreases the result.
func ComputeDensity(text string, conceptCount int) float32 {
	if conceptCount <= 0 {
		return 0
	}
	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	return float32(conceptCount) / float32(words) * 100
}

// Match is one nearest neighbor returned by a vector-similarity primitive.
type Match struct {
	Id    ID
	Score float32
}

// Concept represents one entry of the extracted concept lexicon.
// RelatedIds are graph edges to other concepts; they are not necessarily
// symmetric or acyclic.
type Concept struct {
	Id            ID
	Name          string // canonical (normalized) name
	CategoryId    ID
	Synonyms      []string
	BroaderTerms  []string
	NarrowerTerms []string
	RelatedIds    []ID
	Vector        []float32
	Weight        float32 // importance
	ChunkCount    int
	DocumentCount int
	Provenance    Provenance
}

// Category groups concepts and documents. Parent links form a tree:
// single parent, no cycles. RelatedIds form a separate non-hierarchical graph.
type Category struct {
	Id          ID
	Name        string
	Description string
	Aliases     []string
	ParentId    ID // 0 for root categories
	RelatedIds  []ID

	// Cached aggregate statistics, populated at cache build time.
	DocumentCount int
	ChunkCount    int
	ConceptCount  int
}
