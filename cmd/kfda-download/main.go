// Command kfda-download fetches the complete KFDA food nutrition catalog
// and writes it as a single JSON artifact (and optionally a SQLite
// database) for offline lookup.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bodii/kfda-catalog/internal/config"
	"github.com/bodii/kfda-catalog/pkg/api"
	"github.com/bodii/kfda-catalog/pkg/catalog"
	"github.com/bodii/kfda-catalog/pkg/downloader"
	"github.com/bodii/kfda-catalog/pkg/logging"
	"github.com/bodii/kfda-catalog/pkg/store"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitNoRecords    = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("kfda-download", flag.ContinueOnError)

	apiKey := fs.String("api-key", "", "data.go.kr service key (or KFDA_API_KEY env)")
	output := fs.String("output", "", "Output JSON path (default data/kfda_foods.json)")
	sqlitePath := fs.String("sqlite", "", "Optional SQLite export path")
	includeAll := fs.Bool("all", false, "Keep all classifications, not just representative items")
	configPath := fs.String("config", "", "Optional YAML config file")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	pretty := fs.Bool("pretty", false, "Human-readable console logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: kfda-download [options]

Download the full KFDA food nutrition catalog into a JSON artifact.
A service key from https://www.data.go.kr is required.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		APIKey:     *apiKey,
		Output:     *output,
		SQLite:     *sqlitePath,
		IncludeAll: *includeAll,
		LogLevel:   *logLevel,
		Pretty:     *pretty,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.Pretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiCfg := api.DefaultConfig(cfg.APIKey)
	if v := os.Getenv("KFDA_BASE_URL"); v != "" {
		apiCfg.BaseURL = v
	}
	client, err := api.New(apiCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create API client")
		return ExitInvalidArgs
	}

	dl := downloader.New(client, downloader.Config{
		IncludeAll:    cfg.IncludeAll,
		MaxAttempts:   cfg.Retry.Attempts,
		RetryBackoff:  cfg.Retry.Backoff,
		RateLimitWait: cfg.Retry.RateLimitWait,
		PageDelay:     cfg.Retry.PageDelay,
	})

	result, err := dl.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Download interrupted")
		return ExitGeneralError
	}

	foods := catalog.Dedupe(result.Foods)
	logger.Info().
		Int("before", len(result.Foods)).
		Int("after", len(foods)).
		Msg("Deduplicated records")

	if len(foods) == 0 {
		logger.Error().Msg("No records downloaded")
		return ExitNoRecords
	}

	cat := catalog.Assemble(foods, time.Now())

	if err := writeArtifact(cfg.Output, cat, logger); err != nil {
		logger.Error().Err(err).Str("path", cfg.Output).Msg("Failed to write artifact")
		return ExitGeneralError
	}

	if cfg.SQLite != "" {
		if err := store.Export(ctx, cfg.SQLite, cat); err != nil {
			logger.Error().Err(err).Str("path", cfg.SQLite).Msg("Failed to export SQLite database")
			return ExitGeneralError
		}
		logger.Info().Str("path", cfg.SQLite).Int("foods", cat.TotalCount).Msg("SQLite export written")
	}

	return ExitSuccess
}

// writeArtifact writes the catalog as compact JSON, creating the output
// directory if needed.
func writeArtifact(path string, cat catalog.Catalog, logger zerolog.Logger) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	data, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	logger.Info().
		Str("path", path).
		Int("foods", cat.TotalCount).
		Str("size", formatBytes(int64(len(data)))).
		Msg("Artifact written")
	return nil
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
