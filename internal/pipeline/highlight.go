package pipeline

import (
	"bytes"
	"html"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// HighlightFunc highlights one fenced code block. lang is the info string's
// first word. A returned string starting with "<pre" replaces the whole block;
// anything else is placed inside <pre><code>. An error or an empty result
// makes the renderer fall back to the HTML-escaped code.
type HighlightFunc func(code, lang string) (string, error)

// hookRenderer renders fenced code blocks through a HighlightFunc.
type hookRenderer struct {
	hook   HighlightFunc
	logger *slog.Logger
}

func newHookRenderer(hook HighlightFunc, logger *slog.Logger) renderer.NodeRenderer {
	return &hookRenderer{hook: hook, logger: logger}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *hookRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *hookRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := string(n.Language(source))

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	out := r.highlight(code.String(), lang)
	if strings.HasPrefix(out, "<pre") {
		_, _ = w.WriteString(out)
		if !strings.HasSuffix(out, "\n") {
			_ = w.WriteByte('\n')
		}
		return ast.WalkSkipChildren, nil
	}

	writeCodeOpen(w, lang)
	_, _ = w.WriteString(out)
	writeCodeClose(w)
	return ast.WalkSkipChildren, nil
}

// highlight calls the hook and returns escaped code when it cannot help.
func (r *hookRenderer) highlight(code, lang string) string {
	if lang == "" {
		return html.EscapeString(code)
	}
	out, err := r.hook(code, lang)
	if err != nil {
		r.logger.Debug("highlighter failed, escaping code", "lang", lang, "error", err)
		return html.EscapeString(code)
	}
	if out == "" {
		return html.EscapeString(code)
	}
	return out
}

func writeCodeOpen(w util.BufWriter, lang string) {
	if lang == "" {
		_, _ = w.WriteString("<pre><code>")
		return
	}
	_, _ = w.WriteString(`<pre><code class="language-`)
	_, _ = w.WriteString(html.EscapeString(lang))
	_, _ = w.WriteString(`">`)
}

func writeCodeClose(w util.BufWriter) {
	_, _ = w.WriteString("</code></pre>\n")
}
