package mailify

import (
	"io"
	"log/slog"
	"time"

	"github.com/2bitbit/mailify-md/internal/embed"
	"github.com/2bitbit/mailify-md/internal/pipeline"
	"github.com/2bitbit/mailify-md/internal/render"
	"github.com/2bitbit/mailify-md/internal/trim"
)

// Input contains conversion parameters.
type Input struct {
	Markdown  string // Markdown content (required)
	SourceDir string // Directory relative image paths resolve against (optional)
	Theme     string // Preset name or CSS file path (optional, overrides WithTheme)
	Title     string // Fallback <title> when the document has neither front matter title nor H1
}

// Result is the outcome of a successful conversion.
type Result struct {
	HTML        string    // Self-contained email HTML
	Warnings    []Warning // Assets that could not be embedded
	HasWebLinks bool      // The Markdown references http(s) URLs
}

// Warning kinds.
const (
	WarningFormula = string(embed.KindFormula)
	WarningRemote  = string(embed.KindRemote)
	WarningLocal   = string(embed.KindLocal)
)

// Warning is a recoverable failure to embed one asset. The asset is left
// unchanged in the output.
type Warning struct {
	Kind   string // WarningFormula, WarningRemote or WarningLocal
	Src    string // image src as written, or "formula N"
	Reason string
}

func (w Warning) String() string {
	return embed.Warning{Kind: embed.WarningKind(w.Kind), Src: w.Src, Reason: w.Reason}.String()
}

// HighlightFunc renders one fenced code block. lang is the info string of
// the fence. Returning an error, or an empty string, falls back to escaped
// code.
type HighlightFunc func(code, lang string) (string, error)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout       time.Duration
	theme         string
	assetPath     string
	deviceScale   float64
	viewportWidth int
	linkify       bool
	stealth       bool
	highlighter   HighlightFunc
	katexBaseURL  string
	trimStride    int
	trimMargin    int
	logger        *slog.Logger
}

// Defaults used when no option overrides them.
const (
	defaultTimeout     = render.DefaultTimeout
	DefaultDeviceScale = render.DefaultDeviceScale
	DefaultKaTeXURL    = pipeline.DefaultKaTeXBaseURL
)

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:       defaultTimeout,
		deviceScale:   DefaultDeviceScale,
		viewportWidth: render.DefaultViewportWidth,
		linkify:       true,
		katexBaseURL:  DefaultKaTeXURL,
		trimStride:    trim.DefaultStride,
		trimMargin:    trim.DefaultMargin,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithTimeout bounds the wait for the page to settle.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mailify: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithTheme selects the theme: a preset name or a CSS file path.
func WithTheme(nameOrPath string) Option {
	return func(c *Converter) {
		c.cfg.theme = nameOrPath
	}
}

// WithAssetPath sets a directory holding custom themes (themes/{name}.css)
// and templates (templates/skeleton.html). Missing files fall back to the
// embedded ones.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithDeviceScale sets the device-scale factor pages render at. Higher
// values give sharper formula images.
// Panics if f <= 0.
func WithDeviceScale(f float64) Option {
	if f <= 0 {
		panic("mailify: WithDeviceScale factor must be positive")
	}
	return func(c *Converter) {
		c.cfg.deviceScale = f
	}
}

// WithViewportWidth sets the page width in CSS pixels. Remote images and
// block formulas are sized against it, so match it to the width of the
// reading pane the mail targets.
// Panics if px < 1.
func WithViewportWidth(px int) Option {
	if px < 1 {
		panic("mailify: WithViewportWidth must be at least 1")
	}
	return func(c *Converter) {
		c.cfg.viewportWidth = px
	}
}

// WithLinkify turns automatic linking of bare URLs on or off. On by default.
func WithLinkify(on bool) Option {
	return func(c *Converter) {
		c.cfg.linkify = on
	}
}

// WithStealth renders with go-rod/stealth evasions, for image hosts that
// refuse headless browsers.
func WithStealth(on bool) Option {
	return func(c *Converter) {
		c.cfg.stealth = on
	}
}

// WithHighlighter replaces chroma for fenced code blocks.
func WithHighlighter(fn HighlightFunc) Option {
	return func(c *Converter) {
		c.cfg.highlighter = fn
	}
}

// WithKaTeXBaseURL serves KaTeX from a mirror. The URL must hold katex.min.css,
// katex.min.js and contrib/auto-render.min.js.
func WithKaTeXBaseURL(url string) Option {
	return func(c *Converter) {
		if url != "" {
			c.cfg.katexBaseURL = url
		}
	}
}

// WithTrimStride sets the pixel sampling step used to find formula bounds.
// 1 gives exact bounds.
// Panics if n < 1.
func WithTrimStride(n int) Option {
	if n < 1 {
		panic("mailify: WithTrimStride must be at least 1")
	}
	return func(c *Converter) {
		c.cfg.trimStride = n
	}
}

// WithTrimMargin sets the background pixels kept around formulas.
// Panics if n < 0.
func WithTrimMargin(n int) Option {
	if n < 0 {
		panic("mailify: WithTrimMargin must not be negative")
	}
	return func(c *Converter) {
		c.cfg.trimMargin = n
	}
}

// WithLogger sets the logger. Conversions are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.cfg.logger = l
		}
	}
}
