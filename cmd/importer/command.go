package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"catalog/backend/internal/config"
	"catalog/backend/internal/infrastructure/postgres"
	"catalog/backend/internal/infrastructure/source"
	"catalog/backend/internal/observability"
	"catalog/backend/internal/usecase/importer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

type importOptions struct {
	delimiter   string
	hasHeader   bool
	stopOnError bool
}

func newImportCmd(stderr io.Writer) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:           "importer <file>",
		Short:         "Import products and categories from a CSV or XLSX file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return withCode(exitUsage, fmt.Errorf("expected exactly one file argument, got %d", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts, stderr)
		},
	}
	cmd.SetErr(stderr)
	cmd.SetOut(stderr)

	cmd.Flags().StringVar(&opts.delimiter, "delimiter", ",", "Field delimiter for text files (a single character or \"tab\")")
	cmd.Flags().BoolVar(&opts.hasHeader, "header", false, "Treat the first record as a header row")
	cmd.Flags().BoolVar(&opts.stopOnError, "stop-on-error", false, "Abort the whole import when any row is invalid")

	return cmd
}

// execute runs the importer command and maps its result to a process exit code.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newImportCmd(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.code == exitUsage {
			fmt.Fprintf(stderr, "Error: %v\n%s", exitErr.err, cmd.UsageString())
		}
		return exitErr.code
	}
	// Flag parsing errors surface here.
	fmt.Fprintf(stderr, "Error: %v\n%s", err, cmd.UsageString())
	return exitUsage
}

func runImport(cmd *cobra.Command, path string, opts importOptions, stderr io.Writer) error {
	ctx := cmd.Context()
	bootLogger := zerolog.New(stderr).With().Timestamp().Logger()

	if _, err := os.Stat(path); err != nil {
		bootLogger.Error().Err(err).Str("file", path).Msg("import file is not accessible")
		return withCode(exitFailure, err)
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}

	logger := observability.NewLogger(cfg.Logging, stderr).With().Str("component", "importer").Logger()

	db, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return withCode(exitFailure, err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := db.Migrate(); err != nil {
			logger.Error().Err(err).Msg("failed to run database migrations")
			return withCode(exitFailure, err)
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(cfg.Metrics.Namespace, registry)

	svc := importer.NewService(
		source.NewFile(source.Options{
			Delimiter: cfg.Import.DelimiterRune(),
			HasHeader: cfg.Import.HasHeader,
		}),
		postgres.NewProductRepository(db.Pool),
		postgres.NewCategoryRepository(db.Pool),
		postgres.NewUnitOfWork(db.Pool),
		importer.Settings{StopOnError: cfg.Import.StopOnError},
		logger,
	).WithMetrics(metrics)

	start := time.Now()
	result := svc.Run(ctx, path)
	logSummary(logger, result, time.Since(start))

	if cfg.Metrics.PushgatewayURL != "" {
		pushMetrics(logger, cfg.Metrics.PushgatewayURL, registry)
	}

	if result.Outcome != importer.OutcomeSuccess {
		err := result.Err
		if err == nil {
			err = fmt.Errorf("import finished with outcome %s", result.Outcome)
		}
		return withCode(exitFailure, err)
	}
	return nil
}

// loadConfig reads configuration, applies flag overrides and only then
// validates, so a flag can replace a bad environment value.
func loadConfig(cmd *cobra.Command, opts importOptions) (config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return config.Config{}, withCode(exitFailure, err)
	}
	applyFlags(cmd, &cfg.Import, opts)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, withCode(exitFailure, err)
	}
	return cfg, nil
}

// applyFlags lets explicitly set flags override configuration.
func applyFlags(cmd *cobra.Command, cfg *config.ImportConfig, opts importOptions) {
	flags := cmd.Flags()
	if flags.Changed("delimiter") {
		cfg.Delimiter = opts.delimiter
	}
	if flags.Changed("header") {
		cfg.HasHeader = opts.hasHeader
	}
	if flags.Changed("stop-on-error") {
		cfg.StopOnError = opts.stopOnError
	}
}

func logSummary(logger zerolog.Logger, result importer.Result, elapsed time.Duration) {
	event := logger.Info()
	if result.Outcome != importer.OutcomeSuccess {
		event = logger.Error()
		if result.Err != nil {
			event = event.Err(result.Err)
		}
	}
	event.
		Str("outcome", result.Outcome.String()).
		Int("rows_read", result.RowsRead).
		Int("accepted", result.Accepted).
		Int("rejected", result.Rejected).
		Int("categories_created", result.CategoriesCreated).
		Int("products_created", result.ProductsCreated).
		Int("changes", result.Changes).
		Int("failed_line", result.FailedLine).
		Dur("elapsed", elapsed).
		Msg("import finished")
}

func pushMetrics(logger zerolog.Logger, url string, gatherer prometheus.Gatherer) {
	if err := push.New(url, "catalog_importer").Gatherer(gatherer).Push(); err != nil {
		logger.Warn().Err(err).Str("pushgateway", url).Msg("failed to push import metrics")
		return
	}
	logger.Debug().Str("pushgateway", url).Msg("import metrics pushed")
}
