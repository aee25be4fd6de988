// Package main implements the unified triplake binary. It can run the
// ingestion sweep and the read API together or individually based on the
// --mode flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/triplake/triplake/internal/app"
	"github.com/triplake/triplake/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		mode        string
		httpAddr    string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&mode, "mode", "", "Service mode: all, ingest, serve")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP address for the read API")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Triplake - Taxi Trip Ingestion and Query Service\n\n")
		fmt.Fprintf(os.Stderr, "Usage: triplake [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  triplake --data-dir /data/triplake\n")
		fmt.Fprintf(os.Stderr, "  triplake --mode ingest --data-dir /data/triplake\n")
		fmt.Fprintf(os.Stderr, "  triplake --config /etc/triplake/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  TRIPLAKE_MODE          Service mode (all, ingest, serve)\n")
		fmt.Fprintf(os.Stderr, "  TRIPLAKE_DATA_DIR      Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  TRIPLAKE_HTTP_ADDR     HTTP address for the read API\n")
		fmt.Fprintf(os.Stderr, "  TRIPLAKE_API_KEY       API key required on read requests\n")
		fmt.Fprintf(os.Stderr, "  TRIPLAKE_SOURCE_TYPE   File source type (local, s3)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("triplake version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := loadConfig(configFile, dataDir, mode, httpAddr)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	printBanner(cfg)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	if err := application.Wait(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
}

// loadConfig layers file, environment, and flag configuration, flags
// winning.
func loadConfig(configFile, dataDir, mode, httpAddr string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════════╗")
	log.Printf("║                   TRIPLAKE                    ║")
	log.Printf("║   Taxi Trip Ingestion and Query Service       ║")
	log.Printf("╚═══════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Mode:     %s", cfg.Mode)
	log.Printf("  Data Dir: %s", cfg.DataDir)
	log.Printf("  Source:   %s", cfg.Source.Type)
	log.Printf("")

	if cfg.ShouldRunIngest() {
		log.Printf("Ingestion:")
		log.Printf("  Chunk Size:       %d", cfg.Ingest.ChunkSize)
		log.Printf("  File Concurrency: %d", cfg.Ingest.FileConcurrency)
	}
	if cfg.ShouldRunServe() {
		log.Printf("Read API:")
		log.Printf("  HTTP: %s", cfg.HTTP.Addr)
		log.Printf("  Auth: %v", cfg.API.Key != "")
	}
	log.Printf("")
}
