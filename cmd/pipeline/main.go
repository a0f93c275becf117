package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/avisingh/tradescan/internal/analysis"
	"github.com/avisingh/tradescan/internal/config"
	"github.com/avisingh/tradescan/internal/dataset"
	"github.com/avisingh/tradescan/internal/httpx"
	"github.com/avisingh/tradescan/internal/pipeline"
	"github.com/avisingh/tradescan/internal/source"
)

func main() {
	categories := flag.String("categories", "safety equipment", "comma-separated category phrases")
	sources := flag.String("sources", "tradeindia,alibaba,dhgate", "comma-separated source ids")
	maxPerSource := flag.Int("max", 0, "max records per source (0 uses the configured default)")
	samples := flag.Int("samples", -1, "synthetic records per category (-1 uses the configured default, 0 disables)")
	prefix := flag.String("out", "", "output file prefix")
	report := flag.Bool("report", true, "print the insights report after the run")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if *maxPerSource <= 0 {
		*maxPerSource = cfg.MaxPerSource
	}
	if *samples < 0 {
		*samples = cfg.SampleCount
	}

	registry := source.Defaults()
	if cfg.SourcesFile != "" {
		loaded, err := source.Load(cfg.SourcesFile)
		if err != nil {
			slog.Error("failed to load sources file", "path", cfg.SourcesFile, "error", err)
			os.Exit(1)
		}
		registry = loaded
	}

	writer := dataset.NewWriter(cfg.DataDir)
	controller := pipeline.NewController(
		httpx.NewFetcher(), registry, writer, nil, pipeline.NewStatusTracker())

	res, err := controller.Run(context.Background(), pipeline.RunRequest{
		Categories:   splitList(*categories),
		Sources:      splitList(*sources),
		MaxPerSource: *maxPerSource,
		SampleCount:  *samples,
		OutputPrefix: *prefix,
	})
	if err != nil {
		slog.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("pipeline run complete",
		"total", res.Total, "csv", res.CSVPath, "json", res.JSONPath)

	if *report {
		records, err := dataset.NewReader(cfg.DataDir).Load(filepath.Base(res.JSONPath))
		if err != nil {
			slog.Error("failed to reload dataset for report", "error", err)
			os.Exit(1)
		}
		fmt.Print(analysis.Render(analysis.Build(records)))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
