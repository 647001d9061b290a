// Package main implements the live-event guide generator.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lvstream/eventguide/config"
	"github.com/lvstream/eventguide/handlers"
	"github.com/lvstream/eventguide/internal/data"
	"github.com/lvstream/eventguide/internal/metrics"
	"github.com/sirupsen/logrus"
)

func main() {
	// Configure logrus
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg, err := config.New()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse log level")
	}
	logrus.SetLevel(level)

	logger := logrus.StandardLogger()

	met := metrics.New()
	store := data.NewStore()
	fetcher := data.NewFetcher(cfg, logger, met)
	builder := data.NewBuilder(cfg, logger, met)

	// Initial build (blocking)
	logger.Info("Building initial guide...")
	result, err := fetcher.FetchAll()
	if err != nil {
		logger.WithError(err).Fatal("Failed to fetch inputs")
	}
	artifacts, err := builder.Build(result)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build guide")
	}
	store.SetGuide(artifacts.GuideXML, artifacts.GuideGzip)
	store.SetPlaylist(artifacts.Playlist)

	if err := writeOutputs(cfg, artifacts); err != nil {
		if !cfg.Serve {
			logger.WithError(err).Fatal("Failed to write outputs")
		}
		logger.WithError(err).Error("Failed to write outputs, serving from memory only")
	} else {
		logger.WithFields(logrus.Fields{
			"xml":      cfg.OutputXML,
			"gzip":     cfg.OutputGzip,
			"playlist": cfg.OutputM3U,
		}).Info("Outputs written")
	}

	if !cfg.Serve {
		return
	}

	// Start background refresh manager
	refresher := data.NewRefresher(store, fetcher, builder, cfg.RefreshInterval, logger, met)
	ctx, cancel := context.WithCancel(context.Background())
	go refresher.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(handlers.LoggingMiddleware(logger))
	setupRoutes(router, store, logger, met)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to gracefully shutdown")
		}
	}()

	logger.WithField("port", cfg.Port).Info("Starting guide server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Failed to start server")
	}

	<-ctx.Done()
	logger.Info("Server stopped")
	cancel()
}

func setupRoutes(router chi.Router, store *data.Store, logger *logrus.Logger, met *metrics.Metrics) {
	guideHandler := handlers.NewGuideHandler(store, logger)
	playlistHandler := handlers.NewPlaylistHandler(store, logger)

	router.Get("/epg.xml", guideHandler.XML)
	router.Get("/epg.xml.gz", guideHandler.Gzip)
	router.Method(http.MethodGet, "/playlist.m3u", playlistHandler)
	router.Method(http.MethodGet, "/metrics", met.Handler())

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func writeOutputs(cfg *config.Config, artifacts *data.Artifacts) error {
	if err := os.WriteFile(cfg.OutputXML, artifacts.GuideXML, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.OutputXML, err)
	}
	if err := os.WriteFile(cfg.OutputGzip, artifacts.GuideGzip, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.OutputGzip, err)
	}
	if err := os.WriteFile(cfg.OutputM3U, artifacts.Playlist, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.OutputM3U, err)
	}
	return nil
}
