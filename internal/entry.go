// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lyricist/internal/api"
	"github.com/starford/lyricist/internal/document"
	"github.com/starford/lyricist/internal/index"
	"github.com/starford/lyricist/internal/mcpserver"
	"github.com/starford/lyricist/internal/rhymes"
	"github.com/starford/lyricist/internal/session"
	"github.com/starford/lyricist/internal/sse"
	"github.com/starford/lyricist/internal/storage"
)

// components are the collaborators shared by the HTTP and MCP front ends.
type components struct {
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	lookup rhymes.Lookup
}

func (c *components) Close() {
	if err := c.db.Close(); err != nil {
		c.logger.Warn("index close failed", slog.String("error", err.Error()))
	}
}

func bootstrap(app *application) (*components, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("documents_path", cfg.Documents.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("rhymes_url", cfg.Rhymes.BaseURL),
		slog.Duration("debounce", cfg.Rhymes.Debounce),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure documents directory exists.
	if err := os.MkdirAll(cfg.Documents.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Documents.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	var lookup rhymes.Lookup = rhymes.NewDatamuseClient(cfg.Rhymes.BaseURL, cfg.Rhymes.MaxResults, cfg.Rhymes.Timeout)
	if cfg.Rhymes.CacheSize > 0 {
		lookup = rhymes.NewCachedLookup(lookup, cfg.Rhymes.CacheSize)
	}

	return &components{logger: logger, store: store, db: db, lookup: lookup}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	c, err := bootstrap(app)
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := app.config
	logger := c.logger

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	docs := document.NewService(c.store, c.db,
		document.WithLogger(logger),
		document.WithNotifier(broker.PublishDocument),
	)

	sessions := session.NewHandler(c.lookup, logger,
		rhymes.WithDebounce(cfg.Rhymes.Debounce),
		rhymes.WithLookupTimeout(cfg.Rhymes.Timeout),
	)

	apiRouter := api.NewRouter(api.Deps{
		Documents: docs,
		Rhymes:    c.lookup,
		Events:    broker,
		Session:   sessions,
		Root:      cfg.Documents.Path,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := index.Watch(gCtx, c.db, c.store, cfg.Documents.Path, logger, broker.PublishDocumentEvent); err != nil {
			logger.Error("file watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...",
			slog.Int("active_sessions", sessions.Active()),
			slog.Int("sse_clients", broker.ClientCount()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr unless
// another writer is configured.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))

	c, err := bootstrap(app)
	if err != nil {
		return err
	}
	defer c.Close()

	docs := document.NewService(c.store, c.db, document.WithLogger(c.logger))
	srv := mcpserver.New(docs, c.lookup, c.store)

	c.logger.Info("MCP server starting on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
