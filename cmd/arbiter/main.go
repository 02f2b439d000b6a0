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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Arbiter/internal/api"
	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
	"github.com/MikeSquared-Agency/Arbiter/internal/config"
	"github.com/MikeSquared-Agency/Arbiter/internal/hermes"
	"github.com/MikeSquared-Agency/Arbiter/internal/metrics"
	"github.com/MikeSquared-Agency/Arbiter/internal/pipeline"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	input := flag.String("input", "", "candidate CSV to analyse once and exit")
	criteriaPath := flag.String("criteria", "", "criteria YAML (overrides analysis.criteria)")
	outDir := flag.String("out", "", "artifact directory (overrides analysis.output_dir)")
	serve := flag.Bool("serve", false, "run the HTTP API and NATS listener")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *criteriaPath != "" {
		cfg.Analysis.Criteria = *criteriaPath
	}
	if *outDir != "" {
		cfg.Analysis.OutputDir = *outDir
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	m := metrics.New(prometheus.DefaultRegisterer)
	runner := pipeline.NewRunner(logger, m)

	switch {
	case *input != "":
		if err := runBatch(context.Background(), cfg, runner, *input, logger); err != nil {
			logger.Error("analysis failed", "error", err)
			os.Exit(1)
		}
	case *serve:
		runServer(cfg, runner, logger)
	default:
		fmt.Fprintln(os.Stderr, "usage: arbiter -input candidates.csv [-criteria criteria.yaml] [-out dir] | arbiter -serve")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if lc.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// runBatch analyses one CSV file and writes the artifacts. Stage failures
// are logged; artifacts for the stages that succeeded are still written.
func runBatch(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, path string, logger *slog.Logger) error {
	reg, domReg, err := cfg.LoadCriteria()
	if err != nil {
		return err
	}
	tbl, err := table.ReadCSVFile(path, cfg.Analysis.IDColumn)
	if err != nil {
		return err
	}
	logger.Info("candidates loaded", "path", path, "candidates", tbl.Len(), "criteria", reg.Len())

	res, runErr := runner.Run(ctx, pipeline.Input{Table: tbl, Criteria: reg, DominanceCriteria: domReg}, cfg.Analysis.Options)
	if res == nil {
		return runErr
	}
	for _, w := range res.Warnings {
		logger.Warn("criteria warning", "warning", w)
	}

	written, err := pipeline.WriteArtifacts(cfg.Analysis.OutputDir, res)
	if err != nil {
		return errors.Join(runErr, err)
	}
	logger.Info("artifacts written", "dir", cfg.Analysis.OutputDir, "files", written)
	return runErr
}

func runServer(cfg *config.Config, runner *pipeline.Runner, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database, falling back to memory when none is configured
	var db store.Store
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		db = pg
		logger.Info("connected to database")
	} else {
		db = store.NewMemoryStore()
		logger.Warn("no database configured, analyses are kept in memory")
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Broker
	b := broker.New(db, hermesClient, runner, cfg, logger)
	b.Start(ctx)
	defer b.Stop()
	b.SetupSubscriptions()
	logger.Info("broker started", "workers", cfg.Server.Workers, "queue_size", cfg.Server.QueueSize)

	// API server
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(db, b, cfg.Server.AdminToken, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	cancel()

	logger.Info("shutdown complete")
}
