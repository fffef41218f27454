// Package config loads the YAML configuration file read by the mailify CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2bitbit/mailify-md/internal/fileutil"
	"github.com/2bitbit/mailify-md/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength  = 4096
	MaxURLLength   = 2048
	MaxThemeLength = 4096 // preset name or CSS file path
)

// Range limits for numeric fields.
const (
	MaxWorkers     = 8
	MaxDeviceScale = 8.0
	MaxTrimMargin  = 64
	MaxTrimStride  = 32
)

// appDir is the directory under the user config dir searched for named configs.
const appDir = "mailify"

// Config holds CLI defaults. Zero values mean "use the library default".
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Theme    string         `yaml:"theme"` // preset name or CSS file path
	Assets   AssetsConfig   `yaml:"assets"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Render   RenderConfig   `yaml:"render"`
	Trim     TrimConfig     `yaml:"trim"`
	Workers  int            `yaml:"workers"` // 0 = auto
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = must specify
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = next to the source
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets
}

// MarkdownConfig defines Markdown rendering options.
type MarkdownConfig struct {
	Linkify *bool `yaml:"linkify"` // nil = library default
}

// RenderConfig defines browser rendering options.
type RenderConfig struct {
	Timeout      string  `yaml:"timeout"` // Go duration, e.g. "45s"
	DeviceScale  float64 `yaml:"deviceScale"`
	Stealth      bool    `yaml:"stealth"`
	KaTeXBaseURL string  `yaml:"katexBaseURL"`
}

// TrimConfig tunes formula screenshot trimming.
type TrimConfig struct {
	Stride int  `yaml:"stride"` // 0 = library default
	Margin *int `yaml:"margin"` // nil = library default; 0 keeps no margin
}

// TimeoutDuration returns the parsed render timeout, or 0 when unset.
// Validate guarantees the value parses.
func (r RenderConfig) TimeoutDuration() time.Duration {
	if r.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks field lengths and value ranges.
// Called by LoadConfig; also usable on configs built in code.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("theme", c.Theme, MaxThemeLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.katexBaseURL", c.Render.KaTeXBaseURL, MaxURLLength); err != nil {
		return err
	}

	if c.Render.Timeout != "" {
		d, err := time.ParseDuration(c.Render.Timeout)
		if err != nil {
			return fmt.Errorf("%w: render.timeout: %v", ErrInvalidValue, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: render.timeout: must be positive, got %s", ErrInvalidValue, d)
		}
	}
	if c.Render.DeviceScale < 0 || c.Render.DeviceScale > MaxDeviceScale {
		return fmt.Errorf("%w: render.deviceScale: must be between 0 and %g, got %g",
			ErrInvalidValue, MaxDeviceScale, c.Render.DeviceScale)
	}
	if u := c.Render.KaTeXBaseURL; u != "" && !fileutil.IsURL(u) {
		return fmt.Errorf("%w: render.katexBaseURL: must be an http(s) URL, got %q", ErrInvalidValue, u)
	}
	if c.Trim.Stride < 0 || c.Trim.Stride > MaxTrimStride {
		return fmt.Errorf("%w: trim.stride: must be between 0 and %d, got %d", ErrInvalidValue, MaxTrimStride, c.Trim.Stride)
	}
	if m := c.Trim.Margin; m != nil && (*m < 0 || *m > MaxTrimMargin) {
		return fmt.Errorf("%w: trim.margin: must be between 0 and %d, got %d", ErrInvalidValue, MaxTrimMargin, *m)
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers: must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty configuration; every field falls back to
// the library default.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// A value containing a path separator is a file path. Otherwise it is a
// name searched in the current directory and then in the user config dir.
// A missing file is an error, never a silent fallback.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.Decode(data, &cfg, yamlutil.Strict); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SearchPaths lists the files LoadConfig tries for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, appDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file among SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
