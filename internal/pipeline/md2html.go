package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// HTMLRenderer abstracts Markdown to HTML fragment rendering.
type HTMLRenderer interface {
	Render(ctx context.Context, markdown string) (string, error)
}

// Renderer renders Markdown to an HTML fragment using goldmark (pure Go).
type Renderer struct {
	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

// Compile-time interface check.
var _ HTMLRenderer = (*Renderer)(nil)

type rendererConfig struct {
	codeStyle string
	linkify   bool
	highlight HighlightFunc
	logger    *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*rendererConfig)

// WithCodeStyle selects the chroma style of the default highlighter.
func WithCodeStyle(name string) RendererOption {
	return func(c *rendererConfig) {
		c.codeStyle = name
	}
}

// WithLinkify turns bare URL linkification on or off.
func WithLinkify(on bool) RendererOption {
	return func(c *rendererConfig) {
		c.linkify = on
	}
}

// WithHighlighter replaces the default chroma highlighter for fenced code.
func WithHighlighter(fn HighlightFunc) RendererOption {
	return func(c *rendererConfig) {
		c.highlight = fn
	}
}

// WithRendererLogger sets the logger used for highlighter diagnostics.
func WithRendererLogger(l *slog.Logger) RendererOption {
	return func(c *rendererConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewRenderer creates a Renderer with tables, strikethrough, task lists,
// footnotes, math passthrough and fenced code highlighting.
func NewRenderer(opts ...RendererOption) *Renderer {
	cfg := rendererConfig{
		linkify: true,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	exts := []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Footnote,
		mathjax.MathJax, // keeps $..$ away from emphasis parsing; KaTeX typesets in the browser
	}
	if cfg.linkify {
		exts = append(exts, extension.Linkify)
	}

	rendererOpts := []renderer.Option{
		html.WithXHTML(),
		// Raw HTML is allowed here and cleaned by the bluemonday policy afterwards.
		html.WithUnsafe(),
	}
	if cfg.highlight != nil {
		rendererOpts = append(rendererOpts, renderer.WithNodeRenderers(
			util.Prioritized(newHookRenderer(cfg.highlight, cfg.logger), 100),
		))
	} else {
		exts = append(exts, newChromaHighlighting(cfg.codeStyle, cfg.logger))
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)

	return &Renderer{md: md, sanitize: newSanitizePolicy()}
}

// newChromaHighlighting configures goldmark-highlighting to emit inline
// styles inside <pre><code class="language-x"> so no stylesheet is needed.
func newChromaHighlighting(style string, logger *slog.Logger) goldmark.Extender {
	if style == "" {
		style = "github-dark"
	}
	if _, ok := styles.Registry[style]; !ok {
		logger.Warn("unknown code style, using fallback", "style", style, "fallback", styles.Fallback.Name)
		style = styles.Fallback.Name
	}
	return highlighting.NewHighlighting(
		highlighting.WithStyle(style),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(false),
			chromahtml.PreventSurroundingPre(true),
		),
		highlighting.WithWrapperRenderer(func(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
			lang, _ := c.Language()
			if entering {
				writeCodeOpen(w, string(lang))
				return
			}
			writeCodeClose(w)
		}),
	)
}

// Render converts Markdown into a sanitized HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (r *Renderer) Render(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)
	markdown = expandDisplayMath(markdown)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(markdown), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: r.sanitize.Sanitize(buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.html, res.err
	}
}
