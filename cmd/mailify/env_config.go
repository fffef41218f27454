package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/2bitbit/mailify-md/internal/config"
)

// Environment variable names.
const (
	envConfigPath = "MAILIFY_CONFIG"
	envTheme      = "MAILIFY_THEME"
	envTimeout    = "MAILIFY_TIMEOUT"
	envWorkers    = "MAILIFY_WORKERS"
	envContainer  = "MAILIFY_CONTAINER" // read by doctor
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // MAILIFY_CONFIG: config file name or path
	Theme      string // MAILIFY_THEME: preset name or CSS path
	Timeout    string // MAILIFY_TIMEOUT: render timeout, validated with the config
	Workers    int    // MAILIFY_WORKERS: parallel workers
}

// knownEnvVars lists valid MAILIFY_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	envConfigPath: true,
	envTheme:      true,
	envTimeout:    true,
	envWorkers:    true,
	envContainer:  true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath: getenv(envConfigPath),
		Theme:      getenv(envTheme),
		Timeout:    getenv(envTimeout),
	}

	if workers := getenv(envWorkers); workers != "" {
		w, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a number", config.ErrInvalidValue, envWorkers, workers)
		}
		cfg.Workers = w
	}
	return cfg, nil
}

// warnUnknownEnvVars logs unrecognized MAILIFY_* variables.
// Helps catch typos like MAILIFY_THEMES.
func warnUnknownEnvVars(environ []string, logger *slog.Logger) {
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "MAILIFY_") && !knownEnvVars[name] {
			logger.Warn("unknown environment variable (typo?)", "name", name)
		}
	}
}

// applyEnvConfig overlays set environment values on the file config.
// Precedence: CLI flags > env vars > config file > defaults
// (flags are applied afterwards by mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Theme != "" {
		cfg.Theme = env.Theme
	}
	if env.Timeout != "" {
		cfg.Render.Timeout = env.Timeout
	}
	if env.Workers != 0 {
		cfg.Workers = env.Workers
	}
}
