// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/shutter/internal/api"
	"github.com/starford/shutter/internal/camera"
	"github.com/starford/shutter/internal/gallery"
	"github.com/starford/shutter/internal/mcpserver"
	"github.com/starford/shutter/internal/platform"
	"github.com/starford/shutter/internal/prefs"
	"github.com/starford/shutter/internal/sse"
	"github.com/starford/shutter/internal/storage"
)

const blobSweepInterval = 30 * time.Second

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	var logOut io.Writer = os.Stdout
	if app.mcpOut != nil {
		logOut = os.Stderr
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	mode, err := platform.ParseMode(cfg.Gallery.Mode)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("mode", mode.String()),
		slog.String("data_dir", cfg.Storage.DataDir),
		slog.String("prefs_driver", cfg.Prefs.Driver),
		slog.String("camera_source", cfg.Camera.Source),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	files, err := storage.NewFS(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	kv, err := prefs.Open(cfg.Prefs.Driver, cfg.Prefs.Path)
	if err != nil {
		return fmt.Errorf("init prefs: %w", err)
	}
	defer kv.Close()

	blobs := camera.NewBlobs(cfg.Camera.BlobTTL)
	cam, err := newCamera(cfg, mode, blobs, logger)
	if err != nil {
		return fmt.Errorf("init camera: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	store := gallery.New(mode, cam, files, kv,
		gallery.WithLogger(logger),
		gallery.WithListener(broker.PublishPhotoEvent),
		gallery.WithHTTPClient(&http.Client{Timeout: cfg.Camera.CaptureTimeout}),
	)
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("init gallery: %w", err)
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(logOut, "", log.LstdFlags),
		NoColor: true,
	}))
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
	r.Mount("/api", api.NewRouter(store, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	// Blob handles (web capture, random ids with a TTL) and data dir files
	// (native display paths, token-guarded).
	r.Get(camera.BlobRoute, blobs.ServeHTTP)
	r.Mount(storage.FileRoutePrefix, api.NewFileRouter(files, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		blobs.Run(gCtx, blobSweepInterval)
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

	if app.mcpOut != nil {
		mcpSrv := mcpserver.New(store)
		g.Go(func() error {
			logger.Info("Starting MCP server on stdio")
			// The client closing stdin ends the session and the process.
			defer stop()
			if err := mcpSrv.Listen(gCtx, app.mcpIn, app.mcpOut); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			stop()
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

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

// newCamera builds the capture source selected by cfg.
func newCamera(cfg *Config, mode platform.Mode, blobs *camera.Blobs, logger *slog.Logger) (camera.Camera, error) {
	switch cfg.Camera.Source {
	case CameraSourceSpool:
		return camera.NewSpool(cfg.Camera.SpoolDir, cfg.Camera.CaptureTimeout, logger)
	case CameraSourceUpload:
		stageDir := cfg.Camera.StageDir
		if stageDir == "" {
			stageDir = os.TempDir()
		} else if err := os.MkdirAll(stageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create stage dir: %w", err)
		}
		return camera.NewUpload(mode, stageDir, blobs, cfg.BlobBaseURL()), nil
	default:
		return nil, fmt.Errorf("unknown camera source %q", cfg.Camera.Source)
	}
}
