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


// Command seeder loads a corpus into a gnosis database. Without -src it
// seeds a small built-in corpus of software design texts, useful for
// trying out the query commands.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/poiesic/gnosis"
	"github.com/poiesic/gnosis/ai"
	"github.com/poiesic/gnosis/core"
)

var (
	seedFileName  = flag.String("src", "", "JSON corpus file to seed from")
	dbPath        = flag.String("db", "./gnosis_db", "path to BadgerDB database directory")
	dsn           = flag.String("dsn", "", "PostgreSQL connection string; uses pgvector storage instead of BadgerDB")
	embeddingHost = flag.String("embedding-host", "http://localhost:11434/v1", "embedding service host URL")
	embeddingName = flag.String("embedding-model", "embeddinggemma", "embedding model name")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// seedCorpus is the on-disk corpus format. Entities reference each other
// by name; IDs are derived during seeding.
type seedCorpus struct {
	Categories []seedCategory `json:"categories"`
	Concepts   []seedConcept  `json:"concepts"`
	Documents  []seedDocument `json:"documents"`
}

type seedCategory struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Parent      string   `json:"parent,omitempty"`
	Related     []string `json:"related,omitempty"`
}

type seedConcept struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
	Broader  []string `json:"broader,omitempty"`
	Narrower []string `json:"narrower,omitempty"`
	Related  []string `json:"related,omitempty"`
	Weight   float32  `json:"weight,omitempty"`
}

type seedDocument struct {
	Source     string     `json:"source"`
	Title      string     `json:"title"`
	Author     string     `json:"author,omitempty"`
	Year       int        `json:"year,omitempty"`
	Publisher  string     `json:"publisher,omitempty"`
	Summary    string     `json:"summary"`
	Categories []string   `json:"categories,omitempty"`
	Pages      []seedPage `json:"pages"`
}

type seedPage struct {
	Number int         `json:"number"`
	Chunks []seedChunk `json:"chunks"`
}

type seedChunk struct {
	Text     string   `json:"text"`
	Concepts []string `json:"concepts,omitempty"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	corpus := builtinCorpus
	if *seedFileName != "" {
		loaded, err := corpusFromFile(*seedFileName)
		if err != nil {
			return err
		}
		corpus = loaded
	}

	opts := []gnosis.DatabaseOption{
		gnosis.WithAIConfig(ai.NewConfig(
			ai.WithHost(*embeddingHost),
			ai.WithEmbeddingModel(*embeddingName),
		)),
	}
	if *dsn != "" {
		opts = append(opts, gnosis.WithPostgres(*dsn))
	}

	db, err := gnosis.NewDatabase(*dbPath, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := seed(ctx, db, corpus); err != nil {
		return err
	}

	if err := db.Rebuild(ctx); err != nil {
		return err
	}

	slog.Info("corpus seeded",
		"documents", len(corpus.Documents),
		"concepts", len(corpus.Concepts),
		"categories", len(corpus.Categories))
	return nil
}

func corpusFromFile(filename string) (*seedCorpus, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	corpus := &seedCorpus{}
	if err := json.Unmarshal(data, corpus); err != nil {
		return nil, err
	}
	return corpus, nil
}

// seed writes the corpus into storage. Concept usage counts are
// aggregated from the chunk tags as documents are walked.
func seed(ctx context.Context, db *gnosis.Database, corpus *seedCorpus) error {
	embedder := db.Embedder()

	categories := make([]*core.Category, 0, len(corpus.Categories))
	for _, sc := range corpus.Categories {
		cat := &core.Category{
			Name:        sc.Name,
			Description: sc.Description,
			Aliases:     sc.Aliases,
			RelatedIds:  categoryIDs(sc.Related),
		}
		if sc.Parent != "" {
			cat.ParentId = core.CategoryID(sc.Parent)
		}
		categories = append(categories, cat)
	}
	if _, err := db.CategoryRepository().AddCategories(ctx, categories...); err != nil {
		return err
	}

	// Aggregate per-concept usage while walking documents so concept
	// records carry their counts before insertion.
	chunkCounts := make(map[core.ID]int)
	docCounts := make(map[core.ID]int)

	for _, sd := range corpus.Documents {
		if err := seedDocumentTree(ctx, db, embedder, &sd, chunkCounts, docCounts); err != nil {
			return err
		}
	}

	concepts := make([]*core.Concept, 0, len(corpus.Concepts))
	names := make([]string, 0, len(corpus.Concepts))
	for _, sc := range corpus.Concepts {
		id := core.ConceptID(sc.Name)
		weight := sc.Weight
		if weight == 0 {
			weight = 1
		}
		con := &core.Concept{
			Name:          sc.Name,
			Synonyms:      sc.Synonyms,
			BroaderTerms:  sc.Broader,
			NarrowerTerms: sc.Narrower,
			RelatedIds:    conceptIDs(sc.Related),
			Weight:        weight,
			ChunkCount:    chunkCounts[id],
			DocumentCount: docCounts[id],
			Provenance:    core.ProvenanceCorpus,
		}
		if sc.Category != "" {
			con.CategoryId = core.CategoryID(sc.Category)
		}
		concepts = append(concepts, con)
		names = append(names, sc.Name)
	}
	vectors, err := embedder.EmbedTexts(ctx, names)
	if err != nil {
		return err
	}
	for i, con := range concepts {
		con.Vector = vectors[i]
	}
	if _, err := db.ConceptRepository().AddConcepts(ctx, concepts...); err != nil {
		return err
	}

	return nil
}

func seedDocumentTree(
	ctx context.Context,
	db *gnosis.Database,
	embedder ai.Embedder,
	sd *seedDocument,
	chunkCounts map[core.ID]int,
	docCounts map[core.ID]int,
) error {
	docConcepts := make(map[core.ID]bool)

	var chunks []*core.Chunk
	var pages []*core.Page
	for _, sp := range sd.Pages {
		pageConcepts := make(map[core.ID]bool)
		var preview string
		for _, sc := range sp.Chunks {
			ids := conceptIDs(sc.Concepts)
			for _, id := range ids {
				pageConcepts[id] = true
				docConcepts[id] = true
				chunkCounts[id]++
			}
			if preview == "" {
				preview = sc.Text
			}
			chunks = append(chunks, &core.Chunk{
				PageNumber: sp.Number,
				Text:       sc.Text,
				ConceptIds: ids,
				Density:    core.ComputeDensity(sc.Text, len(ids)),
			})
		}
		pages = append(pages, &core.Page{
			Number:     sp.Number,
			ConceptIds: setToIDs(pageConcepts),
			Preview:    preview,
		})
	}

	doc := &core.Document{
		Source:      sd.Source,
		Title:       sd.Title,
		Author:      sd.Author,
		Year:        sd.Year,
		Publisher:   sd.Publisher,
		Summary:     sd.Summary,
		ConceptIds:  setToIDs(docConcepts),
		CategoryIds: categoryIDs(sd.Categories),
	}
	vector, err := embedder.EmbedText(ctx, sd.Summary)
	if err != nil {
		return err
	}
	doc.Vector = vector

	added, err := db.DocumentRepository().AddDocuments(ctx, doc)
	if err != nil {
		return err
	}
	docID := added[0].Id

	for id := range docConcepts {
		docCounts[id]++
	}

	for _, page := range pages {
		page.DocumentId = docID
	}
	if _, err := db.PageRepository().AddPages(ctx, pages...); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunk.DocumentId = docID
		texts[i] = chunk.Text
	}
	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	for i, chunk := range chunks {
		chunk.Vector = vectors[i]
	}
	if _, err := db.ChunkRepository().AddChunks(ctx, chunks...); err != nil {
		return err
	}

	return nil
}

func conceptIDs(names []string) []core.ID {
	ids := make([]core.ID, len(names))
	for i, name := range names {
		ids[i] = core.ConceptID(name)
	}
	return ids
}

func categoryIDs(names []string) []core.ID {
	ids := make([]core.ID, len(names))
	for i, name := range names {
		ids[i] = core.CategoryID(name)
	}
	return ids
}

func setToIDs(set map[core.ID]bool) []core.ID {
	ids := make([]core.ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
