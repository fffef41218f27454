package pipeline

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/2bitbit/mailify-md/internal/assets"
)

// DefaultKaTeXBaseURL serves the KaTeX stylesheet and scripts.
const DefaultKaTeXBaseURL = "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist"

// BindData is everything the skeleton needs besides the fragment.
type BindData struct {
	Skeleton     string // text/template source holding assets.ContentPlaceholder
	Title        string
	Lang         string
	ThemeCSS     string
	KaTeXBaseURL string
}

// skeletonFields are the values visible to the skeleton template.
// Text fields are escaped before execution; CSS and JS are raw.
type skeletonFields struct {
	Title        string
	Lang         string
	KaTeXBaseURL string
	Container    string
	BuiltinCSS   string
	ThemeCSS     string
	BuiltinJS    string
}

// Bind renders the skeleton and puts fragment in place of its content
// placeholder. The fragment is inserted after template execution so that
// template syntax written in the Markdown is never interpreted.
func Bind(fragment string, data BindData) (string, error) {
	if !strings.Contains(data.Skeleton, assets.ContentPlaceholder) {
		return "", ErrMissingPlaceholder
	}

	tmpl, err := template.New(assets.SkeletonTemplate).Parse(data.Skeleton)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkeleton, err)
	}

	fields := skeletonFields{
		Title:        html.EscapeString(orDefault(data.Title, "Document")),
		Lang:         html.EscapeString(orDefault(data.Lang, "en")),
		KaTeXBaseURL: html.EscapeString(strings.TrimRight(orDefault(data.KaTeXBaseURL, DefaultKaTeXBaseURL), "/")),
		Container:    assets.ContainerClass,
		BuiltinCSS:   sanitizeCSS(assets.BuiltinCSS()),
		ThemeCSS:     sanitizeCSS(data.ThemeCSS),
		BuiltinJS:    assets.BuiltinJS(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkeleton, err)
	}

	out := buf.String()
	// A placeholder inside a template action would have been consumed.
	if !strings.Contains(out, assets.ContentPlaceholder) {
		return "", ErrMissingPlaceholder
	}
	return strings.Replace(out, assets.ContentPlaceholder, fragment, 1), nil
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
