package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/filter"
	"github.com/MikeSquared-Agency/Arbiter/internal/normalize"
	"github.com/MikeSquared-Agency/Arbiter/internal/outrank"
	"github.com/MikeSquared-Agency/Arbiter/internal/pipeline"
)

var envVars = []string{
	"ARBITER_PORT", "ARBITER_METRICS_PORT", "ARBITER_ADMIN_TOKEN", "ARBITER_MAX_CANDIDATES", "ARBITER_WORKERS",
	"ARBITER_DATABASE_URL", "ARBITER_HERMES_URL", "ARBITER_CRITERIA", "ARBITER_DOMINANCE_CRITERIA",
	"ARBITER_OUTPUT_DIR", "ARBITER_PREFILTER", "ARBITER_DOMINANCE_MODE", "ARBITER_DEGENERATE_POLICY",
	"ARBITER_STALL_POLICY", "ARBITER_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.MaxCandidates != 500 {
		t.Errorf("expected max candidates 500, got %d", cfg.Server.MaxCandidates)
	}
	if cfg.Server.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Server.Workers)
	}
	if cfg.Server.QueueSize != 64 {
		t.Errorf("expected queue size 64, got %d", cfg.Server.QueueSize)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Analysis.OutputDir != "output" {
		t.Errorf("expected output dir 'output', got '%s'", cfg.Analysis.OutputDir)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	opts := cfg.Analysis.Options
	if opts != pipeline.DefaultOptions() {
		t.Errorf("expected default options, got %+v", opts)
	}
	if opts.ElectreII != outrank.DefaultFiveTuple() {
		t.Errorf("expected default five-tuple, got %+v", opts.ElectreII)
	}

	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("expected RequestTimeout 30s, got %v", cfg.RequestTimeout())
	}
	if cfg.StatsInterval() != time.Minute {
		t.Errorf("expected StatsInterval 1m, got %v", cfg.StatsInterval())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARBITER_PORT", "9000")
	t.Setenv("ARBITER_METRICS_PORT", "9001")
	t.Setenv("ARBITER_ADMIN_TOKEN", "secret-token")
	t.Setenv("ARBITER_MAX_CANDIDATES", "50")
	t.Setenv("ARBITER_WORKERS", "2")
	t.Setenv("ARBITER_DATABASE_URL", "postgres://localhost/arbiter_test")
	t.Setenv("ARBITER_HERMES_URL", "nats://nats:4222")
	t.Setenv("ARBITER_CRITERIA", "/etc/arbiter/criteria.yaml")
	t.Setenv("ARBITER_DOMINANCE_CRITERIA", "/etc/arbiter/dominance.yaml")
	t.Setenv("ARBITER_OUTPUT_DIR", "/tmp/out")
	t.Setenv("ARBITER_PREFILTER", "satisfaction")
	t.Setenv("ARBITER_DOMINANCE_MODE", "strict")
	t.Setenv("ARBITER_DEGENERATE_POLICY", "zero")
	t.Setenv("ARBITER_STALL_POLICY", "collapse")
	t.Setenv("ARBITER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Server.MaxCandidates != 50 {
		t.Errorf("expected max candidates 50, got %d", cfg.Server.MaxCandidates)
	}
	if cfg.Server.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Server.Workers)
	}
	if cfg.Database.URL != "postgres://localhost/arbiter_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Analysis.Criteria != "/etc/arbiter/criteria.yaml" {
		t.Errorf("expected criteria path, got '%s'", cfg.Analysis.Criteria)
	}
	if cfg.Analysis.DominanceCriteria != "/etc/arbiter/dominance.yaml" {
		t.Errorf("expected dominance criteria path, got '%s'", cfg.Analysis.DominanceCriteria)
	}
	if cfg.Analysis.OutputDir != "/tmp/out" {
		t.Errorf("expected output dir, got '%s'", cfg.Analysis.OutputDir)
	}
	opts := cfg.Analysis.Options
	if opts.Prefilter != pipeline.PrefilterSatisfaction {
		t.Errorf("expected satisfaction prefilter, got %s", opts.Prefilter)
	}
	if opts.Dominance != filter.ModeStrict {
		t.Errorf("expected strict dominance, got %s", opts.Dominance)
	}
	if opts.Degenerate != normalize.PolicyZero {
		t.Errorf("expected zero policy, got %s", opts.Degenerate)
	}
	if opts.Stall != outrank.StallCollapse {
		t.Errorf("expected collapse stall policy, got %s", opts.Stall)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "arbiter.yaml", `
server:
  port: 8800
analysis:
  id_column: name
  options:
    prefilter: none
    electre1:
      concordance: 0.7
      discordance: 0.4
    electre2:
      c_high: 0.9
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8800 {
		t.Errorf("expected port 8800, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Analysis.IDColumn != "name" {
		t.Errorf("expected id column 'name', got '%s'", cfg.Analysis.IDColumn)
	}
	opts := cfg.Analysis.Options
	if opts.Prefilter != pipeline.PrefilterNone {
		t.Errorf("expected prefilter none, got %s", opts.Prefilter)
	}
	if opts.ElectreI.Concordance != 0.7 || opts.ElectreI.Discordance != 0.4 {
		t.Errorf("unexpected electre1 thresholds %+v", opts.ElectreI)
	}
	if opts.ElectreII.CHigh != 0.9 || opts.ElectreII.CMedium != 0.6 {
		t.Errorf("expected partial five-tuple override, got %+v", opts.ElectreII)
	}
	if opts.Dominance != filter.ModeOutperform {
		t.Errorf("expected default dominance mode, got %s", opts.Dominance)
	}
}

func TestLoadRejectsBadOptions(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"unknown prefilter": "analysis:\n  options:\n    prefilter: lottery\n",
		"tuple out of order": "analysis:\n  options:\n    electre2:\n      c_low: 0.99\n",
		"threshold above one": "analysis:\n  options:\n    electre1:\n      concordance: 1.2\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.yaml", body))
			if !errors.Is(err, criteria.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}

	t.Run("bad env policy", func(t *testing.T) {
		t.Setenv("ARBITER_STALL_POLICY", "forever")
		if _, err := Load(""); !errors.Is(err, criteria.ErrConfiguration) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadCriteria(t *testing.T) {
	clearEnv(t)
	main := writeFile(t, "criteria.yaml", `
criteria:
  - name: price
    direction: minimize
    weight: 2
  - name: quality
    direction: maximize
`)
	dom := writeFile(t, "dominance.yaml", `
criteria:
  - name: quality
    direction: maximize
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, _, err := cfg.LoadCriteria(); !errors.Is(err, criteria.ErrConfiguration) {
		t.Errorf("expected configuration error without a criteria file, got %v", err)
	}

	cfg.Analysis.Criteria = main
	reg, domReg, err := cfg.LoadCriteria()
	if err != nil {
		t.Fatalf("LoadCriteria failed: %v", err)
	}
	if reg.Len() != 2 || domReg != nil {
		t.Errorf("expected 2 criteria and no dominance registry, got %d and %v", reg.Len(), domReg)
	}

	cfg.Analysis.DominanceCriteria = dom
	_, domReg, err = cfg.LoadCriteria()
	if err != nil {
		t.Fatalf("LoadCriteria failed: %v", err)
	}
	if domReg == nil || domReg.Len() != 1 {
		t.Errorf("expected one dominance criterion, got %v", domReg)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LoggingConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
