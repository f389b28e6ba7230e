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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/smartnotes/internal/api"
	"github.com/starford/smartnotes/internal/autosave"
	"github.com/starford/smartnotes/internal/codec"
	"github.com/starford/smartnotes/internal/mcpserver"
	"github.com/starford/smartnotes/internal/prefs"
	"github.com/starford/smartnotes/internal/query"
	"github.com/starford/smartnotes/internal/sse"
	"github.com/starford/smartnotes/internal/storage"
	"github.com/starford/smartnotes/internal/store"
)

// components are the services shared by every entry point.
type components struct {
	logger   *slog.Logger
	provider storage.Provider
	close    func()
	store    *store.Store
	prefs    *prefs.Prefs
	query    *query.Engine
	codec    *codec.Codec
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// open sets up logging, opens the configured storage provider and loads the
// persisted state. With strict set a load failure is returned; otherwise it is
// logged and the affected namespace stays in memory only.
func (a *application) open(ctx context.Context, strict bool) (*components, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c := &components{logger: logger, close: func() {}}

	switch cfg.Storage.Driver {
	case StorageDriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		db, err := storage.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		c.provider = db
		c.close = func() {
			if err := db.Close(); err != nil {
				logger.Error("close storage", slog.String("error", err.Error()))
			}
		}
	default:
		if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		c.provider = fs
	}

	c.store = store.New(c.provider, logger)
	if err := c.store.Load(ctx); err != nil {
		if strict {
			c.close()
			return nil, fmt.Errorf("load state: %w", err)
		}
		logger.Warn("initial load failed", slog.String("error", err.Error()))
	}
	c.prefs = prefs.New(c.provider, logger)
	if err := c.prefs.Load(ctx); err != nil {
		logger.Warn("preferences load failed", slog.String("error", err.Error()))
	}
	c.query = query.New(c.store)
	c.codec = codec.New()

	notes, labels := c.store.Snapshot()
	logger.Info("State loaded",
		slog.Int("notes", len(notes)),
		slog.Int("labels", len(labels)))

	return c, nil
}

// reload applies an external change of one storage key.
func (c *components) reload(ctx context.Context, key string) {
	var err error
	if key == storage.KeyPreferences {
		_, err = c.prefs.Reload(ctx)
	} else {
		err = c.store.Reload(ctx, key)
	}
	if err != nil {
		c.logger.Warn("reload failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	c, err := app.open(ctx, false)
	if err != nil {
		return err
	}
	defer c.close()
	logger := c.logger

	saver := autosave.New(c.store, cfg.Autosave.Delay, logger)

	// SSE broker fed by repository changes.
	broker := sse.NewBroker(cfg.Events.StatsThrottle)
	unsubscribe := c.store.Subscribe(func(ev store.Event) {
		broker.PublishChange(string(ev.Kind), ev.ID)
	})
	defer unsubscribe()

	apiRouter := api.NewRouter(api.Deps{
		Store:    c.store,
		Query:    c.query,
		Codec:    c.codec,
		Prefs:    c.prefs,
		Autosave: saver,
		Events:   broker,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.provider.Keys(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Reload state changed on disk by another process.
	if cfg.Storage.Driver == StorageDriverFS && cfg.Storage.Watch {
		g.Go(func() error {
			if err := storage.Watch(gCtx, cfg.Storage.Path, logger, func(key string) {
				c.reload(gCtx, key)
			}); err != nil {
				return fmt.Errorf("storage watcher: %w", err)
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Event streams never end on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		if saver.Flush() {
			logger.Info("Pending draft saved")
		}
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.open(ctx, false)
	if err != nil {
		return err
	}
	defer c.close()

	c.logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(c.store, c.query, c.codec).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
