package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/filter"
	"github.com/MikeSquared-Agency/Arbiter/internal/normalize"
	"github.com/MikeSquared-Agency/Arbiter/internal/outrank"
	"github.com/MikeSquared-Agency/Arbiter/internal/pipeline"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	MetricsPort    int    `yaml:"metrics_port"`
	AdminToken     string `yaml:"admin_token"`
	RequestTimeout int    `yaml:"request_timeout_ms"`
	MaxCandidates  int    `yaml:"max_candidates"`
	Workers        int    `yaml:"workers"`
	QueueSize      int    `yaml:"queue_size"`
	StatsInterval  int    `yaml:"stats_interval_ms"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// AnalysisConfig holds batch-mode inputs and the default run options.
type AnalysisConfig struct {
	IDColumn          string           `yaml:"id_column"`
	Criteria          string           `yaml:"criteria"`
	DominanceCriteria string           `yaml:"dominance_criteria"`
	OutputDir         string           `yaml:"output_dir"`
	Options           pipeline.Options `yaml:"options"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name to a slog level, defaulting to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Millisecond
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Server.StatsInterval) * time.Millisecond
}

// LoadCriteria reads the analysis criteria and, when configured, the
// separate dominance criteria. The second registry is nil otherwise.
func (c *Config) LoadCriteria() (*criteria.Registry, *criteria.Registry, error) {
	if c.Analysis.Criteria == "" {
		return nil, nil, criteria.Configf("analysis.criteria", "no criteria file configured")
	}
	reg, err := criteria.LoadFile(c.Analysis.Criteria)
	if err != nil {
		return nil, nil, err
	}
	if c.Analysis.DominanceCriteria == "" {
		return reg, nil, nil
	}
	dom, err := criteria.LoadFile(c.Analysis.DominanceCriteria)
	if err != nil {
		return nil, nil, fmt.Errorf("dominance criteria: %w", err)
	}
	return reg, dom, nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           8700,
			MetricsPort:    8701,
			RequestTimeout: 30000,
			MaxCandidates:  500,
			Workers:        4,
			QueueSize:      64,
			StatsInterval:  60000,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Analysis: AnalysisConfig{
			OutputDir: "output",
			Options:   pipeline.DefaultOptions(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Analysis.Options.Validate(); err != nil {
		return nil, fmt.Errorf("analysis options: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ARBITER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("ARBITER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("ARBITER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("ARBITER_MAX_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxCandidates = n
		}
	}
	if v := os.Getenv("ARBITER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Workers = n
		}
	}
	if v := os.Getenv("ARBITER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ARBITER_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("ARBITER_CRITERIA"); v != "" {
		cfg.Analysis.Criteria = v
	}
	if v := os.Getenv("ARBITER_DOMINANCE_CRITERIA"); v != "" {
		cfg.Analysis.DominanceCriteria = v
	}
	if v := os.Getenv("ARBITER_OUTPUT_DIR"); v != "" {
		cfg.Analysis.OutputDir = v
	}
	if v := os.Getenv("ARBITER_PREFILTER"); v != "" {
		cfg.Analysis.Options.Prefilter = pipeline.Prefilter(v)
	}
	if v := os.Getenv("ARBITER_DOMINANCE_MODE"); v != "" {
		cfg.Analysis.Options.Dominance = filter.Mode(v)
	}
	if v := os.Getenv("ARBITER_DEGENERATE_POLICY"); v != "" {
		cfg.Analysis.Options.Degenerate = normalize.Policy(v)
	}
	if v := os.Getenv("ARBITER_STALL_POLICY"); v != "" {
		cfg.Analysis.Options.Stall = outrank.StallPolicy(v)
	}
	if v := os.Getenv("ARBITER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
