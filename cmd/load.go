package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/fintech-reviews/revload/config"
	"github.com/fintech-reviews/revload/pkg/buildinfo"
	"github.com/fintech-reviews/revload/pkg/db"
	"github.com/fintech-reviews/revload/pkg/ingest/batch"
	"github.com/fintech-reviews/revload/pkg/ingest/events"
	"github.com/fintech-reviews/revload/pkg/ingest/normalize"
	"github.com/fintech-reviews/revload/pkg/ingest/schema"
	"github.com/fintech-reviews/revload/pkg/ingest/source"
	"github.com/fintech-reviews/revload/pkg/ingest/storage"
	"github.com/fintech-reviews/revload/pkg/ingest/verify"
	"github.com/fintech-reviews/revload/pkg/logging"
)

// Load command flags
var (
	loadChunkSize      int
	loadSource         string
	loadDryRun         bool
	loadSkipVerify     bool
	loadMetricsAddr    string
	loadPromptPassword bool
	loadOutput         string
)

// LoadCommandDeps holds the dependencies for the load command.
type LoadCommandDeps struct {
	LoadConfig     func() (*config.CLIConfig, error)
	ConnectToDB    func(context.Context, *config.CLIConfig, bool) (*pgxpool.Pool, error)
	ConnectToRedis func(context.Context, *config.CLIConfig) (*redis.Client, error)
}

// DefaultLoadDeps returns the default dependencies for production use.
func DefaultLoadDeps() *LoadCommandDeps {
	return &LoadCommandDeps{
		LoadConfig:     config.LoadConfig,
		ConnectToDB:    connectToDatabase,
		ConnectToRedis: connectToRedis,
	}
}

// loadSummary is the run outcome printed to the operator.
type loadSummary struct {
	JobID    string `json:"job_id" yaml:"job_id"`
	File     string `json:"file" yaml:"file"`
	Total    int    `json:"total_records" yaml:"total_records"`
	Inserted int    `json:"inserted" yaml:"inserted"`
	Updated  int    `json:"updated" yaml:"updated"`
	Skipped  int    `json:"skipped" yaml:"skipped"`
	Rejected int    `json:"rejected" yaml:"rejected"`
	DryRun   bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`

	Verification *verify.Report `json:"verification,omitempty" yaml:"verification,omitempty"`
}

// NewLoadCommand creates the 'load' command.
func NewLoadCommand() *cobra.Command {
	deps := DefaultLoadDeps()

	cmd := &cobra.Command{
		Use:   "load [path]",
		Short: "Load review CSV exports into PostgreSQL",
		Long: `Load review CSV exports into the normalized PostgreSQL schema.

The path may be a CSV file or a directory. For a directory, the richest
export is picked automatically (reviews_with_themes.csv, then
reviews_with_sentiment.csv, then reviews.csv). With no path the current
directory is searched.

Records are normalized, deduplicated on identity, and upserted in chunks.
Re-running a load after an enrichment pass updates only the sentiment,
theme, and keyword fields; review text, rating, and date keep their
first-insert values. Records without review text or a bank name are
rejected and counted. A record that fails its single-record retry is
skipped and logged; the rest of the run continues.

Examples:
  # Load the richest export from the data directory
  revload load ./data

  # Load a specific file with smaller chunks
  revload load reviews.csv --chunk-size 200

  # Validate without writing
  revload load ./data --dry-run

  # Expose Prometheus metrics while loading
  revload load ./data --metrics-addr :9187`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runLoad(cmd.Context(), deps, path)
		},
	}

	cmd.Flags().IntVar(&loadChunkSize, "chunk-size", 0, "Records per bulk upsert statement (default 500)")
	cmd.Flags().StringVar(&loadSource, "source", "", "Source label for records without one (default \"Google Play Store\")")
	cmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "Normalize and validate without writing to the database")
	cmd.Flags().BoolVar(&loadSkipVerify, "skip-verify", false, "Skip the post-load verification queries")
	cmd.Flags().StringVar(&loadMetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9187)")
	cmd.Flags().BoolVar(&loadPromptPassword, "prompt-password", false, "Prompt for the database password")
	cmd.Flags().StringVarP(&loadOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

// runLoad executes the full load pipeline.
func runLoad(ctx context.Context, deps *LoadCommandDeps, path string) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	if loadChunkSize > 0 {
		cfg.ChunkSize = loadChunkSize
	}
	if loadSource != "" {
		cfg.Source = loadSource
	}

	// Resolve and read the input before touching the database.
	file, err := source.Discover(path)
	if err != nil {
		return err
	}
	logger.Info("Input resolved", logging.F("file", file))

	records, err := source.NewReader().ReadFile(file)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Warn("Input file has no records", logging.F("file", file))
	}

	pool, err := deps.ConnectToDB(ctx, cfg, loadPromptPassword)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := schema.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics, err := batch.NewMetrics("revload", registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	if _, err := db.RegisterPoolStatsCollector(pool, "revload", registry); err != nil {
		return fmt.Errorf("registering pool metrics: %w", err)
	}
	if loadMetricsAddr != "" {
		startMetricsServer(loadMetricsAddr, registry, logger)
	}

	publisher := newPublisher(ctx, deps, cfg, logger)
	defer publisher.Close()

	repo := storage.NewRepository(pool, logger)
	resolver := storage.NewBankResolver(repo, logger)
	normalizer := normalize.NewNormalizer(resolver, normalize.WithSource(cfg.Source))

	loader := batch.NewLoader(normalizer, repo, publisher, metrics, logger, batch.LoaderConfig{
		ChunkSize: cfg.ChunkSize,
		File:      file,
		DryRun:    loadDryRun,
	})

	result, loadErr := loader.Load(ctx, records)

	summary := &loadSummary{
		JobID:           result.JobID,
		File:            result.File,
		Total:           result.TotalRecords,
		Inserted:        result.Inserted,
		Updated:         result.Updated,
		Skipped:         result.Skipped,
		Rejected:        result.Rejected,
		DryRun:          result.DryRun,
		DurationSeconds: result.CompletedAt.Sub(result.StartedAt).Seconds(),
	}

	if loadErr == nil && !loadDryRun && !loadSkipVerify {
		report, verr := verify.NewVerifier(pool, logger).Run(ctx)
		if verr != nil {
			logger.Warn("Verification could not run", logging.Err(verr))
		} else {
			summary.Verification = report
		}
	}

	if err := outputLoadSummary(resolveFormat(cfg, loadOutput), summary); err != nil {
		return err
	}

	return loadErr
}

// newPublisher builds the optional Redis event publisher. Redis being down
// or unconfigured never blocks a load.
func newPublisher(ctx context.Context, deps *LoadCommandDeps, cfg *config.CLIConfig, logger logging.Logger) *events.Publisher {
	client, err := deps.ConnectToRedis(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, events disabled", logging.Err(err))
		return nil
	}
	if client == nil {
		return nil
	}
	return events.NewPublisher(client, logger)
}

// startMetricsServer serves /metrics and /version in the background for the
// duration of the load.
func startMetricsServer(addr string, registry *prometheus.Registry, logger logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/version", buildinfo.Handler("revload"))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", logging.F("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("Metrics server stopped", logging.Err(err))
		}
	}()
}

// outputLoadSummary formats and prints the run outcome.
func outputLoadSummary(format config.OutputFormat, summary *loadSummary) error {
	switch format {
	case config.OutputFormatJSON:
		return outputJSON(summary)
	case config.OutputFormatYAML:
		return outputYAML(summary)
	default:
		return outputLoadSummaryText(summary)
	}
}

// outputLoadSummaryText formats the summary for terminal display.
func outputLoadSummaryText(s *loadSummary) error {
	if s.DryRun {
		fmt.Println("Dry run (no database writes)")
	}
	fmt.Printf("Load %s\n", s.JobID)
	fmt.Printf("  File:     %s\n", s.File)
	fmt.Printf("  Records:  %d\n", s.Total)
	fmt.Printf("  Inserted: %d\n", s.Inserted)
	fmt.Printf("  Updated:  %d\n", s.Updated)
	fmt.Printf("  Skipped:  %d\n", s.Skipped)
	fmt.Printf("  Rejected: %d\n", s.Rejected)
	fmt.Printf("  Duration: %.1fs\n", s.DurationSeconds)

	if s.Verification != nil {
		fmt.Println()
		outputReportText(s.Verification)
	}
	return nil
}
