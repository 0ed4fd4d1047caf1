// Copyright 2026 Poiesic Systems
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docquery"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/query"
	"github.com/poiesic/docquery/server"
)

func main() {
	app := &cli.App{
		Name:  "docquery",
		Usage: "Document question-answering service with retrieval-augmented generation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest a document into the chunk store, replacing its contents",
				Action: ingestCommand,
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the document (PDF or plain text)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk length in characters",
						Value: ingestion.DefaultChunkSize,
					},
					&cli.DurationFlag{
						Name:  "pace",
						Usage: "Delay between embedding requests",
						Value: ingestion.DefaultPace,
					},
					&cli.IntFlag{
						Name:  "dimension",
						Usage: "Embedding vector dimension",
						Value: ingestion.DefaultDimension,
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the question-answering HTTP API",
				Action: serveCommand,
				Flags:  serveFlags(),
			},
			{
				Name:   "logs",
				Usage:  "Show recent query audit records",
				Action: logsCommand,
				Flags: append(storageFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records to show",
						Value: 20,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the embedded database directory",
			Value:   "./data",
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "PostgreSQL connection URL; selects the pgvector backend",
			EnvVars: []string{"DATABASE_URL"},
		},
	}
}

func serveFlags() []cli.Flag {
	return append(append(storageFlags(), aiFlags()...),
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"addr", "a"},
			Usage:   "Listen address",
			Value:   ":3000",
		},
		&cli.StringSliceFlag{
			Name:  "cors-origin",
			Usage: "Allowed CORS origin (repeatable)",
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of chunks retrieved as answer context",
			Value: query.DefaultTopK,
		},
	)
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: "AI provider: huggingface (hosted) or openai (OpenAI-compatible local service)",
			Value: string(docquery.ProviderHuggingFace),
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Inference API token",
			EnvVars: []string{"HF_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "Override the embedding and generation host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Text generation model name",
		},
	}
}

func setup(c *cli.Context) error {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
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

func newService(c *cli.Context) (*docquery.Service, error) {
	aiOpts := []ai.ConfigOption{
		ai.WithAPIToken(c.String("api-token")),
	}
	if host := c.String("ai-host"); host != "" {
		aiOpts = append(aiOpts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("generation-model"); model != "" {
		aiOpts = append(aiOpts, ai.WithGenerationModel(model))
	}
	aiConfig := ai.NewConfig(aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []docquery.ServiceOption{
		docquery.WithAIConfig(aiConfig),
		docquery.WithDataPath(c.String("db")),
		docquery.WithProviderKind(docquery.ProviderKind(c.String("provider"))),
	}
	if url := c.String("database-url"); url != "" {
		opts = append(opts, docquery.WithDatabaseURL(url))
	}
	return docquery.NewService(opts...)
}

func ingestCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	pipeline := service.NewIngestionPipeline(
		ingestion.WithChunkSize(c.Int("chunk-size")),
		ingestion.WithPace(c.Duration("pace")),
		ingestion.WithDimension(c.Int("dimension")),
	)

	start := time.Now()
	report, err := pipeline.IngestFile(c.Context, c.String("file"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Document fingerprint: %d\n", report.Fingerprint)
	fmt.Fprintf(os.Stderr, "Chunks: %d total, %d stored, %d failed\n",
		report.TotalChunks, report.Succeeded, report.Failed)
	fmt.Fprintf(os.Stderr, "Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func serveCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	srv := server.NewServer(service.NewQueryPipeline(query.WithTopK(c.Int("top-k"))), server.Config{
		Addr:           c.String("listen"),
		AllowedOrigins: c.StringSlice("cors-origin"),
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

func logsCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	records, err := service.AuditRepository().RecentLogRecords(context.Background(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	for _, record := range records {
		fmt.Printf("[%s] %-16s Q: %s\n    A: %s\n",
			record.CreatedAt.Format(time.RFC3339),
			record.Source.String(),
			record.Question,
			record.Answer)
	}
	return nil
}
