// Package server provides server lifecycle management including graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// ShutdownManager coordinates signal handling, in-flight request draining,
// and resource cleanup. Closers run in reverse registration order so that
// the HTTP server stops accepting work before the store underneath it
// closes.
type ShutdownManager struct {
	shutdownTimeout time.Duration
	drainTimeout    time.Duration

	shutdownCh     chan struct{}
	shutdownOnce   sync.Once
	inFlight       int64
	isShuttingDown int32

	closers   []io.Closer
	closersMu sync.Mutex
}

// ShutdownConfig holds timeouts for the shutdown manager.
type ShutdownConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
	// DrainTimeout is the time to wait for in-flight requests to complete.
	DrainTimeout time.Duration
}

// NewShutdownManager creates a shutdown manager. Zero timeouts get the
// defaults of 30s total and 15s drain.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	if config.DrainTimeout == 0 {
		config.DrainTimeout = 15 * time.Second
	}
	return &ShutdownManager{
		shutdownTimeout: config.ShutdownTimeout,
		drainTimeout:    config.DrainTimeout,
		shutdownCh:      make(chan struct{}),
	}
}

// RegisterCloser adds a closer to be called during shutdown. Closers run in
// reverse order of registration.
func (sm *ShutdownManager) RegisterCloser(closer io.Closer) {
	sm.closersMu.Lock()
	defer sm.closersMu.Unlock()
	sm.closers = append(sm.closers, closer)
}

// ListenForSignals blocks until SIGTERM, SIGINT, or context cancellation,
// then runs graceful shutdown.
func (sm *ShutdownManager) ListenForSignals(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Printf("server: received signal %v, shutting down", sig)
		return sm.Shutdown(ctx)
	case <-ctx.Done():
		return sm.Shutdown(context.Background())
	case <-sm.shutdownCh:
		return nil
	}
}

// Shutdown drains in-flight requests and closes registered resources. Safe
// to call more than once; only the first call does the work.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	sm.shutdownOnce.Do(func() {
		atomic.StoreInt32(&sm.isShuttingDown, 1)
		close(sm.shutdownCh)

		shutdownCtx, cancel := context.WithTimeout(ctx, sm.shutdownTimeout)
		defer cancel()

		if err := sm.drainInFlight(shutdownCtx); err != nil {
			shutdownErr = err
		}

		sm.closersMu.Lock()
		closers := sm.closers
		sm.closersMu.Unlock()

		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil && shutdownErr == nil {
				shutdownErr = fmt.Errorf("close failed: %w", err)
			}
		}
	})

	return shutdownErr
}

func (sm *ShutdownManager) drainInFlight(ctx context.Context) error {
	drainCtx, cancel := context.WithTimeout(ctx, sm.drainTimeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if atomic.LoadInt64(&sm.inFlight) == 0 {
			return nil
		}
		select {
		case <-drainCtx.Done():
			remaining := atomic.LoadInt64(&sm.inFlight)
			if remaining > 0 {
				return fmt.Errorf("timeout waiting for %d in-flight requests", remaining)
			}
			return nil
		case <-ticker.C:
		}
	}
}

// TrackRequest increments the in-flight counter. Returns false if shutdown
// is in progress and the request should be rejected.
func (sm *ShutdownManager) TrackRequest() bool {
	if atomic.LoadInt32(&sm.isShuttingDown) == 1 {
		return false
	}
	atomic.AddInt64(&sm.inFlight, 1)
	return true
}

// UntrackRequest decrements the in-flight counter.
func (sm *ShutdownManager) UntrackRequest() {
	atomic.AddInt64(&sm.inFlight, -1)
}

// IsShuttingDown reports whether shutdown has begun.
func (sm *ShutdownManager) IsShuttingDown() bool {
	return atomic.LoadInt32(&sm.isShuttingDown) == 1
}

// ShutdownCh returns a channel that closes when shutdown begins.
func (sm *ShutdownManager) ShutdownCh() <-chan struct{} {
	return sm.shutdownCh
}

// GracefulHTTPServer wraps an http.Server with graceful shutdown support.
type GracefulHTTPServer struct {
	server   *http.Server
	shutdown *ShutdownManager
}

// NewGracefulHTTPServer creates a graceful HTTP server.
func NewGracefulHTTPServer(server *http.Server, shutdown *ShutdownManager) *GracefulHTTPServer {
	return &GracefulHTTPServer{server: server, shutdown: shutdown}
}

// ListenAndServe runs the server until it fails or shutdown begins.
func (gs *GracefulHTTPServer) ListenAndServe() error {
	gs.shutdown.RegisterCloser(&httpServerCloser{server: gs.server})

	errCh := make(chan error, 1)
	go func() {
		if err := gs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-gs.shutdown.ShutdownCh():
		return <-errCh
	}
}

type httpServerCloser struct {
	server *http.Server
}

func (c *httpServerCloser) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}

// ShutdownMiddleware tracks in-flight requests and rejects new requests
// once shutdown begins.
func ShutdownMiddleware(sm *ShutdownManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sm.TrackRequest() {
				w.Header().Set("Connection", "close")
				http.Error(w, "Service Unavailable - Shutting Down", http.StatusServiceUnavailable)
				return
			}
			defer sm.UntrackRequest()

			next.ServeHTTP(w, r)
		})
	}
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

// Close calls the underlying function.
func (f CloserFunc) Close() error {
	return f()
}
