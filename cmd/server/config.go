package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/hazyhaar/scoutlens/pkg/upstream"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type config struct {
	Addr           string        `yaml:"addr"`
	APIBase        string        `yaml:"api_base"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	StatusDB       string        `yaml:"status_db"` // empty keeps check results in memory
	CheckInterval  time.Duration `yaml:"check_interval"`
	LogLevel       string        `yaml:"log_level"`

	// loadedFrom is the config file path, empty when defaults were used.
	loadedFrom string
}

func defaultConfig() config {
	return config{
		Addr:           "127.0.0.1:8420",
		APIBase:        "http://127.0.0.1:8000",
		RetryDelay:     100 * time.Millisecond,
		CommandTimeout: 10 * time.Second,
		CheckInterval:  5 * time.Minute,
		LogLevel:       "info",
	}
}

// loadConfig reads path over the defaults, then .env, then SCOUTLENS_*
// variables. A missing config file or .env is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.loadedFrom = path
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides cfg with the non-empty SCOUTLENS_* variables.
func applyEnv(cfg *config, getenv func(string) string) error {
	strs := map[string]*string{
		"SCOUTLENS_ADDR":      &cfg.Addr,
		"SCOUTLENS_API_BASE":  &cfg.APIBase,
		"SCOUTLENS_STATUS_DB": &cfg.StatusDB,
		"SCOUTLENS_LOG_LEVEL": &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SCOUTLENS_FETCH_TIMEOUT":   &cfg.FetchTimeout,
		"SCOUTLENS_RETRY_DELAY":     &cfg.RetryDelay,
		"SCOUTLENS_COMMAND_TIMEOUT": &cfg.CommandTimeout,
		"SCOUTLENS_CHECK_INTERVAL":  &cfg.CheckInterval,
	}
	for key, dst := range durations {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// newLogger writes text logs to w. Stdout is never used: it carries the
// native messaging and MCP stdio protocols.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// statusDBPath is where upstream checks are recorded. Nothing touches disk
// unless status_db is set.
func (c config) statusDBPath() string {
	if c.StatusDB == "" {
		return upstream.MemoryPath
	}
	return c.StatusDB
}
