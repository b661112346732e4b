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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/gnosis"
	"github.com/poiesic/gnosis/ai"
	"github.com/poiesic/gnosis/navigate"
	"github.com/poiesic/gnosis/rank"
	"github.com/poiesic/gnosis/reembed"
	"github.com/poiesic/gnosis/search"
	"github.com/poiesic/gnosis/taxonomy"
	"github.com/poiesic/gnosis/thesaurus"
)

func main() {
	// Load .env before flag parsing so EnvVars defaults see its values.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal(fmt.Errorf("failed to load .env: %w", err))
	}

	app := &cli.App{
		Name:   "gnosis",
		Usage:  "Conceptual retrieval over an ingested document corpus",
		Before: setup,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				EnvVars: []string{"GNOSIS_DB"},
				Value:   "./gnosis_db",
			},
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "PostgreSQL connection string; uses pgvector storage instead of BadgerDB",
				EnvVars: []string{"GNOSIS_DSN"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"GNOSIS_EMBEDDING_HOST"},
				Value:   "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"GNOSIS_EMBEDDING_MODEL"},
				Value:   "embeddinggemma",
			},
			&cli.StringFlag{
				Name:    "thesaurus",
				Usage:   "Path to a JSON thesaurus file",
				EnvVars: []string{"GNOSIS_THESAURUS"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "documents",
				Usage:     "Search documents by topical relevance",
				ArgsUsage: "<query>",
				Action:    documentsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum vector similarity for semantic candidates",
						Value: 0.30,
					},
					&cli.Float64Flag{
						Name:  "gap-threshold",
						Usage: "Relative score drop that ends the result cluster (0.3-0.5)",
						Value: 0.4,
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Include per-signal score breakdowns",
					},
				},
			},
			{
				Name:      "passages",
				Usage:     "Search text passages, across the corpus or within one document",
				ArgsUsage: "<query>",
				Action:    passagesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "doc",
						Usage: "Restrict to one document (decimal ID, source locator or title)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "gap-threshold",
						Usage: "Relative score drop that ends the result cluster (0.3-0.5)",
						Value: 0.4,
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Include per-signal score breakdowns",
					},
				},
			},
			{
				Name:      "concept",
				Usage:     "Resolve a concept and assemble its sources and passages",
				ArgsUsage: "<query>",
				Action:    conceptCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-sources",
						Usage: "Maximum source documents",
						Value: 8,
					},
					&cli.IntFlag{
						Name:  "max-passages",
						Usage: "Maximum passages",
						Value: 12,
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Keep only sources whose title or locator contains this text",
					},
				},
			},
			{
				Name:   "categories",
				Usage:  "List categories with aggregate statistics",
				Action: categoriesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Ordering: name, documents or concepts",
						Value: "name",
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Name substring filter",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of categories (0 for all)",
					},
				},
			},
			{
				Name:      "category",
				Usage:     "Show one category with its ancestry and concepts",
				ArgsUsage: "<name|alias|id>",
				Action:    categoryCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate all stored embeddings with the configured model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// openEngine opens the database, rebuilds the in-memory term index and
// caches, and returns a ready query engine. The caller must close the
// returned database.
func openEngine(ctx context.Context, c *cli.Context) (*gnosis.Database, *search.Engine, error) {
	opts := []gnosis.DatabaseOption{
		gnosis.WithAIConfig(ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)),
	}
	if dsn := c.String("dsn"); dsn != "" {
		opts = append(opts, gnosis.WithPostgres(dsn))
	}

	if path := c.String("thesaurus"); path != "" {
		th, err := thesaurus.LoadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load thesaurus: %w", err)
		}
		opts = append(opts, gnosis.WithThesaurus(th))
	}

	db, err := gnosis.NewDatabase(c.String("db"), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Rebuild(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to build index: %w", err)
	}

	engine, err := db.NewEngine()
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return db, engine, nil
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", fmt.Errorf("a query is required")
	}
	return query, nil
}

func documentsCommand(c *cli.Context) error {
	ctx := context.Background()

	query, err := queryArg(c)
	if err != nil {
		return err
	}

	db, engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	queryOpts := []search.QueryOption{
		search.WithLimit(c.Int("limit")),
		search.WithMinSimilarity(float32(c.Float64("min-similarity"))),
		search.WithGapThreshold(c.Float64("gap-threshold")),
	}
	if c.Bool("debug") {
		queryOpts = append(queryOpts, search.WithDebug())
	}

	hits, err := engine.SearchDocuments(ctx, query, queryOpts...)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d documents\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("%d: %s (%d)[%0.3f]\n", i+1, hit.Document.Title, hit.Document.Id, hit.Score)
		if hit.Document.Source != "" {
			fmt.Printf("   %s\n", hit.Document.Source)
		}
		if hit.Breakdown != nil {
			printBreakdown(hit.Breakdown)
		}
	}
	if len(hits) > 0 && hits[0].Degraded {
		fmt.Println("(thesaurus unavailable, results from corpus signals only)")
	}

	return nil
}

func passagesCommand(c *cli.Context) error {
	ctx := context.Background()

	query, err := queryArg(c)
	if err != nil {
		return err
	}

	db, engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	queryOpts := []search.QueryOption{
		search.WithLimit(c.Int("limit")),
		search.WithGapThreshold(c.Float64("gap-threshold")),
	}
	if c.Bool("debug") {
		queryOpts = append(queryOpts, search.WithDebug())
	}

	var hits []*search.ChunkHit
	if docRef := c.String("doc"); docRef != "" {
		hits, err = engine.SearchChunksInDocument(ctx, docRef, query, queryOpts...)
	} else {
		hits, err = engine.SearchChunksAcrossCorpus(ctx, query, queryOpts...)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Found %d passages\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("%d: doc %d p.%d [%0.3f] %s\n",
			i+1, hit.Chunk.DocumentId, hit.Chunk.PageNumber, hit.Score, excerpt(hit.Chunk.Text, 100))
		if hit.Breakdown != nil {
			printBreakdown(hit.Breakdown)
		}
	}

	return nil
}

func conceptCommand(c *cli.Context) error {
	ctx := context.Background()

	query, err := queryArg(c)
	if err != nil {
		return err
	}

	db, engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	exploreOpts := []navigate.ExploreOption{
		navigate.WithMaxSources(c.Int("max-sources")),
		navigate.WithMaxPassages(c.Int("max-passages")),
	}
	if filter := c.String("filter"); filter != "" {
		exploreOpts = append(exploreOpts, navigate.WithSourceFilter(filter))
	}

	answer, err := engine.SearchConcept(ctx, query, exploreOpts...)
	if err != nil {
		return err
	}

	fmt.Printf("Concept: %s [%0.3f]\n", answer.Concept.Name, answer.Confidence)
	if len(answer.Concept.Synonyms) > 0 {
		fmt.Printf("Synonyms: %s\n", strings.Join(answer.Concept.Synonyms, ", "))
	}
	if len(answer.Related) > 0 {
		names := make([]string, len(answer.Related))
		for i, rel := range answer.Related {
			names[i] = rel.Name
		}
		fmt.Printf("Related: %s\n", strings.Join(names, ", "))
	}
	if answer.Degraded {
		fmt.Println("(thesaurus unavailable, resolution from corpus signals only)")
	}

	fmt.Printf("\nSources (%d):\n", len(answer.Sources))
	for _, src := range answer.Sources {
		via := ""
		if src.ViaConcept != "" {
			via = fmt.Sprintf(" via %q", src.ViaConcept)
		}
		fmt.Printf("  [%s]%s %s (%d) pages %v\n",
			src.Classification, via, src.Document.Title, src.Document.Id, src.Pages)
	}

	fmt.Printf("\nPassages (%d):\n", len(answer.Passages))
	for _, p := range answer.Passages {
		fmt.Printf("  doc %d p.%d [%0.2f] %s\n",
			p.DocumentId, p.Chunk.PageNumber, p.Density, excerpt(p.Chunk.Text, 100))
	}

	return nil
}

func categoriesCommand(c *cli.Context) error {
	ctx := context.Background()

	sortBy := taxonomy.CategorySort(c.String("sort"))
	switch sortBy {
	case taxonomy.SortByName, taxonomy.SortByDocuments, taxonomy.SortByConcepts:
	default:
		return fmt.Errorf("invalid sort %q: must be one of name, documents, concepts", sortBy)
	}

	db, engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	cats, err := engine.ListCategories(sortBy, c.String("filter"), c.Int("limit"))
	if err != nil {
		return err
	}

	fmt.Printf("Found %d categories\n", len(cats))
	for _, cat := range cats {
		fmt.Printf("  %s (%d): %d documents, %d concepts, %d passages\n",
			cat.Name, cat.Id, cat.DocumentCount, cat.ConceptCount, cat.ChunkCount)
	}

	return nil
}

func categoryCommand(c *cli.Context) error {
	ctx := context.Background()

	ref := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if ref == "" {
		return fmt.Errorf("a category name, alias or ID is required")
	}

	db, engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	info, err := engine.ResolveCategory(ref)
	if err != nil {
		return err
	}

	path := make([]string, len(info.Path))
	for i, anc := range info.Path {
		path[i] = anc.Name
	}
	fmt.Printf("Category: %s (%d)\n", info.Category.Name, info.Category.Id)
	if info.Category.Description != "" {
		fmt.Printf("  %s\n", info.Category.Description)
	}
	fmt.Printf("Path: %s\n", strings.Join(path, " > "))
	if len(info.Related) > 0 {
		names := make([]string, len(info.Related))
		for i, rel := range info.Related {
			names[i] = rel.Name
		}
		fmt.Printf("Related: %s\n", strings.Join(names, ", "))
	}

	concepts, err := engine.ConceptsInCategory(ref)
	if err != nil {
		return err
	}
	fmt.Printf("Concepts (%d):\n", len(concepts))
	for _, con := range concepts {
		fmt.Printf("  %s (%d documents, %d passages)\n", con.Name, con.DocumentCount, con.ChunkCount)
	}

	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	opts := []gnosis.DatabaseOption{
		gnosis.WithAIConfig(ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)),
	}
	if dsn := c.String("dsn"); dsn != "" {
		opts = append(opts, gnosis.WithPostgres(dsn))
	}

	db, err := gnosis.NewDatabase(c.String("db"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder, err := reembed.NewReembedder(
		db.DocumentRepository(),
		db.ChunkRepository(),
		db.ConceptRepository(),
		db.Embedder(),
		config,
		os.Stderr,
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func printBreakdown(b *rank.Breakdown) {
	data, err := json.Marshal(b)
	if err != nil {
		return
	}
	fmt.Printf("   signals: %s\n", data)
}

func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
