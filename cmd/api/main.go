package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/vigil/internal/api"
	"github.com/your-org/vigil/internal/api/ws"
	"github.com/your-org/vigil/internal/config"
	"github.com/your-org/vigil/internal/detect"
	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/observability"
	"github.com/your-org/vigil/internal/store"
	"github.com/your-org/vigil/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting vigil API service", "port", cfg.Server.Port)

	for _, dir := range []string{cfg.Storage.DataDir, cfg.Storage.UploadsDir, cfg.Storage.PhotosDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("create storage dir", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	footageStore, err := store.NewFootageStore(cfg.Storage.FootageFile())
	if err != nil {
		slog.Error("open footage store", "error", err)
		os.Exit(1)
	}

	identityStore, err := store.NewIdentityStore(cfg.Storage.IdentityFile())
	if err != nil {
		slog.Error("open identity store", "error", err)
		os.Exit(1)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Processing supervisor
	runner := &detect.Runner{
		Binary:   cfg.Detector.Binary,
		FacesDir: cfg.Detector.FacesDir,
		LogLevel: cfg.Detector.LogLevel,
		Timeout:  time.Duration(cfg.Detector.Timeout),
	}
	supervisor := detect.NewSupervisor(runner, footageStore, identityStore, cfg.Detector.MetadataSuffix, cfg.Detector.Workers)
	supervisor.OnTransition = func(event string, f *models.Footage) {
		hub.BroadcastEvent(&dto.WSEvent{Type: event, FootageID: f.ID})
	}
	supervisor.Start(ctx)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:         cfg.Server.APIKey,
		Footage:        footageStore,
		Identities:     identityStore,
		Supervisor:     supervisor,
		Hub:            hub,
		UploadsDir:     cfg.Storage.UploadsDir,
		PhotosDir:      cfg.Storage.PhotosDir,
		OutputSuffix:   cfg.Detector.OutputSuffix,
		MetadataSuffix: cfg.Detector.MetadataSuffix,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	supervisor.Wait()

	slog.Info("API server stopped")
}
