// Package app wires the Triplake services together and manages their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	httpapi "github.com/triplake/triplake/internal/api/http"
	"github.com/triplake/triplake/internal/config"
	"github.com/triplake/triplake/internal/load"
	"github.com/triplake/triplake/internal/observability"
	"github.com/triplake/triplake/internal/pipeline"
	"github.com/triplake/triplake/internal/query"
	"github.com/triplake/triplake/internal/server"
	"github.com/triplake/triplake/internal/source"
	"github.com/triplake/triplake/internal/store"
)

// App manages the Triplake services: the ingestion sweep and the read API,
// together or separately depending on the configured mode.
type App struct {
	cfg *config.Config

	store    *store.TripStore
	stats    *observability.IngestStats
	shutdown *server.ShutdownManager

	httpServer *http.Server

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg:      cfg,
		stats:    observability.NewIngestStats(),
		shutdown: server.NewShutdownManager(server.ShutdownConfig{}),
	}, nil
}

// Start opens shared resources and launches the configured services. It
// returns once everything is running; use Wait to block until shutdown.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	tripStore, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return err
	}
	a.store = tripStore
	a.shutdown.RegisterCloser(tripStore)

	// Runs before the store closer so background work is told to stop
	// before the store goes away.
	a.shutdown.RegisterCloser(server.CloserFunc(func() error {
		cancel()
		return nil
	}))

	if a.cfg.ShouldRunIngest() {
		a.startIngest(ctx)
	}

	if a.cfg.ShouldRunServe() {
		if err := a.startServe(ctx); err != nil {
			return err
		}
	}

	log.Printf("triplake started in %s mode", a.cfg.Mode)
	return nil
}

// startIngest launches one ingestion sweep in the background. The sweep
// processes every file currently in the drop location and then stops;
// re-running the binary performs the next sweep.
func (a *App) startIngest(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		src, err := a.buildSource(ctx)
		if err != nil {
			log.Printf("app: ingest disabled: %v", err)
			return
		}

		p := pipeline.New(load.NewLoader(a.store), a.cfg.Ingest.ChunkSize)
		runner := pipeline.NewRunner(src, p, a.stats, a.cfg.Ingest.RawDir, a.cfg.Ingest.FileConcurrency)

		if _, err := runner.Run(ctx); err != nil {
			log.Printf("app: ingestion sweep failed: %v", err)
			return
		}

		snap := a.stats.Snapshot()
		log.Printf("app: ingestion sweep complete: files=%d stored=%d rejected=%v",
			snap.FilesProcessed, snap.RowsStored, snap.RowsRejected)

		// In pure ingest mode there is nothing left to serve.
		if !a.cfg.ShouldRunServe() {
			a.shutdown.Shutdown(context.Background())
		}
	}()
}

func (a *App) buildSource(ctx context.Context) (source.FileSource, error) {
	switch a.cfg.Source.Type {
	case "local":
		return source.NewLocalSource(a.cfg.Source.Path), nil
	case "s3":
		return source.NewS3Source(ctx, source.S3Config{
			Bucket:   a.cfg.Source.S3.Bucket,
			Region:   a.cfg.Source.S3.Region,
			Endpoint: a.cfg.Source.S3.Endpoint,
			Prefix:   a.cfg.Source.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported source type: %s", a.cfg.Source.Type)
	}
}

// startServe starts the HTTP read API.
func (a *App) startServe(ctx context.Context) error {
	engine := query.NewEngine(a.store,
		query.WithLimits(a.cfg.Query.DefaultLimit, a.cfg.Query.MaxLimit))

	protect := httpapi.ChainMiddleware(
		server.ShutdownMiddleware(a.shutdown),
		httpapi.DefaultMiddleware(a.cfg.API.Key),
	)

	mux := http.NewServeMux()
	mux.Handle("/v1/trips", protect(httpapi.NewTripsHandler(engine)))
	mux.Handle("/v1/ingest/stats", protect(httpapi.NewStatsHandler(a.stats)))
	mux.Handle("/v1/healthz", &httpapi.HealthHandler{})

	a.httpServer = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	graceful := server.NewGracefulHTTPServer(a.httpServer, a.shutdown)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Printf("app: read API listening on %s", a.cfg.HTTP.Addr)
		if err := graceful.ListenAndServe(); err != nil {
			log.Printf("app: read API failed: %v", err)
			a.shutdown.Shutdown(ctx)
		}
	}()

	return nil
}

// Wait blocks until a signal or internal failure triggers shutdown, then
// drains and closes everything.
func (a *App) Wait(ctx context.Context) error {
	err := a.shutdown.ListenForSignals(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return err
}

// Stop triggers shutdown programmatically.
func (a *App) Stop() error {
	if a.cancel != nil {
		a.cancel()
	}
	err := a.shutdown.Shutdown(context.Background())
	a.wg.Wait()
	return err
}

// Stats exposes the ingestion statistics tracker.
func (a *App) Stats() *observability.IngestStats {
	return a.stats
}
