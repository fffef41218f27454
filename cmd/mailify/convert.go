package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	mailify "github.com/2bitbit/mailify-md"
	"github.com/2bitbit/mailify-md/internal/config"
	"github.com/2bitbit/mailify-md/internal/hints"
)

// runConvertCmd parses flags, runs the conversion and maps the outcome to
// an exit code.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	logger := newLogger(env, flags.common)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	undo, _ := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer undo()

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runConvert(ctx, positional, flags, env, logger); err != nil {
		hint := hints.For(err, env.Getenv)
		if errors.Is(err, ErrOutputDir) {
			hint = hints.ForOutputDirectory()
		}
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hint)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment, logger *slog.Logger) error {
	warnUnknownEnvVars(env.Environ(), logger)

	envCfg, err := loadEnvConfig(env.Getenv)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if name := firstNonEmpty(flags.common.config, envCfg.ConfigPath); name != "" {
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Debug("config loaded", "source", name)
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}

	files, err := discoverFiles(inputPath, cfg.Output.DefaultDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	size := min(mailify.ResolvePoolSize(cfg.Workers), len(files))
	logger.Debug("starting conversion", "files", len(files), "workers", size)

	pool, err := env.NewPool(size, buildOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Warn("closing converter pool", "err", cerr)
		}
	}()

	results := convertBatch(ctx, pool, files)
	return printResults(results, flags.common, env)
}

// mergeFlags merges CLI flags into config. Set flags override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.output != "" {
		cfg.Output.DefaultDir = flags.output
	}
	if flags.workers != 0 {
		cfg.Workers = flags.workers
	}
	if flags.theme != "" {
		cfg.Theme = flags.theme
	}
	if flags.assetPath != "" {
		cfg.Assets.BasePath = flags.assetPath
	}
	if flags.noLinkify {
		off := false
		cfg.Markdown.Linkify = &off
	}

	if flags.render.timeout != "" {
		cfg.Render.Timeout = flags.render.timeout
	}
	if flags.render.deviceScale != 0 {
		cfg.Render.DeviceScale = flags.render.deviceScale
	}
	if flags.render.stealth {
		cfg.Render.Stealth = true
	}
	if flags.render.katexURL != "" {
		cfg.Render.KaTeXBaseURL = flags.render.katexURL
	}

	if flags.trim.stride > 0 {
		cfg.Trim.Stride = flags.trim.stride
	}
	if flags.trim.margin >= 0 {
		m := flags.trim.margin
		cfg.Trim.Margin = &m
	}
}

// buildOptions turns a validated config into converter options. Zero values
// keep the library defaults.
func buildOptions(cfg *config.Config, logger *slog.Logger) []mailify.Option {
	opts := []mailify.Option{mailify.WithLogger(logger)}

	if cfg.Theme != "" {
		opts = append(opts, mailify.WithTheme(cfg.Theme))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mailify.WithAssetPath(cfg.Assets.BasePath))
	}
	if cfg.Markdown.Linkify != nil {
		opts = append(opts, mailify.WithLinkify(*cfg.Markdown.Linkify))
	}
	if d := cfg.Render.TimeoutDuration(); d > 0 {
		opts = append(opts, mailify.WithTimeout(d))
	}
	if cfg.Render.DeviceScale > 0 {
		opts = append(opts, mailify.WithDeviceScale(cfg.Render.DeviceScale))
	}
	if cfg.Render.Stealth {
		opts = append(opts, mailify.WithStealth(true))
	}
	if cfg.Render.KaTeXBaseURL != "" {
		opts = append(opts, mailify.WithKaTeXBaseURL(cfg.Render.KaTeXBaseURL))
	}
	if cfg.Trim.Stride > 0 {
		opts = append(opts, mailify.WithTrimStride(cfg.Trim.Stride))
	}
	if cfg.Trim.Margin != nil {
		opts = append(opts, mailify.WithTrimMargin(*cfg.Trim.Margin))
	}
	return opts
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// newLogger returns a text logger on stderr: -v selects Debug, -q Error.
func newLogger(env *Environment, f commonFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case f.quiet:
		level = slog.LevelError
	case f.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: level}))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
