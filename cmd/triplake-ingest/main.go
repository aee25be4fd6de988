// Package main implements the triplake-ingest one-shot ingestion CLI. It
// sweeps the drop location once, prints per-file summaries, and exits;
// useful for cron-driven loads and backfills.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/triplake/triplake/internal/config"
	"github.com/triplake/triplake/internal/load"
	"github.com/triplake/triplake/internal/observability"
	"github.com/triplake/triplake/internal/pipeline"
	"github.com/triplake/triplake/internal/source"
	"github.com/triplake/triplake/internal/store"
)

func main() {
	var (
		configFile  string
		dataDir     string
		dropPath    string
		chunkSize   int
		concurrency int
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&dropPath, "drop", "", "Local drop directory to sweep (overrides source config)")
	flag.IntVar(&chunkSize, "chunk-size", 0, "Rows per cleaning chunk (0 = configured default)")
	flag.IntVar(&concurrency, "concurrency", 0, "Files ingested in parallel (0 = configured default)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	cfg.Mode = config.ModeIngest
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dropPath != "" {
		cfg.Source.Type = "local"
		cfg.Source.Path = dropPath
	}
	if chunkSize > 0 {
		cfg.Ingest.ChunkSize = chunkSize
	}
	if concurrency > 0 {
		cfg.Ingest.FileConcurrency = concurrency
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	ctx := context.Background()

	tripStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open trip store: %v", err)
	}
	defer tripStore.Close()

	src, err := buildSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build file source: %v", err)
	}

	stats := observability.NewIngestStats()
	p := pipeline.New(load.NewLoader(tripStore), cfg.Ingest.ChunkSize)
	runner := pipeline.NewRunner(src, p, stats, cfg.Ingest.RawDir, cfg.Ingest.FileConcurrency)

	summaries, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("Ingestion sweep failed: %v", err)
	}

	failed := 0
	for _, s := range summaries {
		status := "ok"
		if s.Err != "" {
			status = "FAILED: " + s.Err
			failed++
		}
		fmt.Printf("%-40s decoded=%-8d stored=%-8d rejected=%-6d schema_failed=%-4d store_failed=%-4d %s\n",
			s.File, s.RowsDecoded, s.RowsStored, s.RejectedTotal(), s.SchemaFailed, s.StoreFailed, status)
	}

	snap := stats.Snapshot()
	fmt.Printf("\ntotal: files=%d decoded=%d stored=%d rejected=%v schema_failed=%d store_failed=%d\n",
		snap.FilesProcessed, snap.RowsDecoded, snap.RowsStored, snap.RowsRejected,
		snap.SchemaFailed, snap.StoreFailed)

	if failed > 0 {
		os.Exit(1)
	}
}

func buildSource(ctx context.Context, cfg *config.Config) (source.FileSource, error) {
	switch cfg.Source.Type {
	case "local":
		return source.NewLocalSource(cfg.Source.Path), nil
	case "s3":
		return source.NewS3Source(ctx, source.S3Config{
			Bucket:   cfg.Source.S3.Bucket,
			Region:   cfg.Source.S3.Region,
			Endpoint: cfg.Source.S3.Endpoint,
			Prefix:   cfg.Source.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Source.Type)
	}
}
