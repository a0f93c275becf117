package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/avisingh/tradescan/internal/api"
	"github.com/avisingh/tradescan/internal/config"
	"github.com/avisingh/tradescan/internal/dataset"
	"github.com/avisingh/tradescan/internal/httpx"
	"github.com/avisingh/tradescan/internal/pipeline"
	"github.com/avisingh/tradescan/internal/source"
	"github.com/avisingh/tradescan/internal/store"
)

const sourceProbeInterval = 30 * time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()

	registry := source.Defaults()
	if cfg.SourcesFile != "" {
		loaded, err := source.Load(cfg.SourcesFile)
		if err != nil {
			slog.Error("failed to load sources file", "path", cfg.SourcesFile, "error", err)
			os.Exit(1)
		}
		registry = loaded
	}

	var fetcher *httpx.Fetcher
	if cfg.UserAgent != "" {
		fetcher = httpx.NewFetcher(cfg.UserAgent)
	} else {
		fetcher = httpx.NewFetcher()
	}

	// Keep the registry's health view current in the background.
	gate := httpx.NewRobotsGate(cfg.UserAgent)
	go func() {
		ctx := context.Background()
		registry.Refresh(ctx, gate)
		for range time.Tick(sourceProbeInterval) {
			registry.Refresh(ctx, gate)
		}
	}()

	var persister pipeline.Persister
	if cfg.DatabaseURL != "" {
		dbStore, err := store.New(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to store", "error", err)
			os.Exit(1)
		}
		defer dbStore.Close()

		if err := dbStore.Migrate(context.Background()); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		persister = dbStore
		slog.Info("database persistence enabled")
	}

	writer := dataset.NewWriter(cfg.DataDir)
	reader := dataset.NewReader(cfg.DataDir)
	controller := pipeline.NewController(fetcher, registry, writer, persister, pipeline.NewStatusTracker())

	srv := api.NewServer(controller, registry, reader, cfg.SampleCount)

	slog.Info("starting server", "port", cfg.Port, "data_dir", cfg.DataDir)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
