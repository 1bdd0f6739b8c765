// Package cli implements the boardgameborrow command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ken-allen-3/boardgameborrow"
	"github.com/ken-allen-3/boardgameborrow/bgg"
	"github.com/ken-allen-3/boardgameborrow/config"
	"github.com/ken-allen-3/boardgameborrow/metadata"
	"github.com/ken-allen-3/boardgameborrow/rankings"
	"github.com/ken-allen-3/boardgameborrow/store"
	"github.com/ken-allen-3/boardgameborrow/telemetry"
)

// Global flags
var (
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "boardgameborrow",
	Short:         "Board game metadata cache and rankings tooling",
	Long:          `Query cached board game metadata, search the BoardGameGeek catalog, and maintain the monthly category rankings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

// app bundles everything a command needs, built once per invocation.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	service *metadata.Service
	ranks   *rankings.Store
}

func (a *app) close() {
	if a.ranks != nil {
		if err := a.ranks.Close(); err != nil {
			a.logger.Warn("closing rankings store", "error", err)
		}
	}
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	blob, err := store.NewFile(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}

	ranks, err := rankings.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("rankings store: %w", err)
	}

	// Retry ownership sits with the search path; a transport-level retry on
	// top of it would multiply the upstream call budget under throttling.
	client := bgg.NewClient(
		bgg.WithBaseURL(cfg.APIBaseURL),
		bgg.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		bgg.WithLogger(logger),
		bgg.WithRetries(0, 0),
	)

	service := metadata.NewService(client,
		metadata.WithCacheStore(blob),
		metadata.WithRankingsStore(ranks),
		metadata.WithUsageRecorder(ranks),
		metadata.WithTelemetrySink(telemetry.NewPrometheusExporter(prometheus.DefaultRegisterer)),
		metadata.WithLogger(logger),
		metadata.WithSearchBatch(boardgameborrow.BatchConfig{
			Size:  cfg.SearchBatchSize,
			Delay: cfg.SearchBatchDelay,
		}),
		metadata.WithRankingBatch(boardgameborrow.BatchConfig{
			Size:  cfg.RankingBatchSize,
			Delay: cfg.RankingBatchDelay,
		}),
	)

	return &app{cfg: cfg, logger: logger, service: service, ranks: ranks}, nil
}
