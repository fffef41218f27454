//go:build bench

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/2bitbit/mailify-md/internal/assets"
)

func BenchmarkRender(b *testing.B) {
	r := NewRenderer()
	ctx := context.Background()

	inputs := []struct {
		name    string
		content string
	}{
		{"minimal", "# Hello\n\nWorld"},
		{"formulas", generateFormulaMarkdown(50)},
		{"code_blocks", generateCodeMarkdown("python", 10)},
		{"mixed_small", generateMailMarkdown(10)},
		{"mixed_large", generateMailMarkdown(200)},
	}

	for _, input := range inputs {
		b.Run(input.name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := r.Render(ctx, input.content); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRenderParallel(b *testing.B) {
	r := NewRenderer()
	ctx := context.Background()
	content := generateMailMarkdown(20)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := r.Render(ctx, content); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkRenderHighlighter compares chroma against a no-op hook.
func BenchmarkRenderHighlighter(b *testing.B) {
	ctx := context.Background()
	content := generateCodeMarkdown("go", 20)

	renderers := map[string]*Renderer{
		"chroma": NewRenderer(),
		"hook": NewRenderer(WithHighlighter(func(code, _ string) (string, error) {
			return code, nil
		})),
	}

	for name, r := range renderers {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := r.Render(ctx, content); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBind(b *testing.B) {
	loader := assets.NewEmbeddedLoader()
	skeleton, err := loader.LoadTemplate(assets.SkeletonTemplate)
	if err != nil {
		b.Fatal(err)
	}
	theme, err := loader.LoadTheme(assets.DefaultTheme)
	if err != nil {
		b.Fatal(err)
	}
	fragment := strings.Repeat("<p>paragraph</p>\n", 500)
	data := BindData{Skeleton: skeleton, Title: "Bench", ThemeCSS: theme}

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Bind(fragment, data); err != nil {
			b.Fatal(err)
		}
	}
}

func generateFormulaMarkdown(count int) string {
	var sb strings.Builder
	for i := range count {
		fmt.Fprintf(&sb, "Inline $x_%d^2$ and block:\n\n$$\\sum_{k=0}^{%d} k$$\n\n", i, i)
	}
	return sb.String()
}

func generateCodeMarkdown(lang string, blocks int) string {
	var sb strings.Builder
	for i := range blocks {
		fmt.Fprintf(&sb, "```%s\n", lang)
		for j := range 20 {
			fmt.Fprintf(&sb, "value_%d_%d = compute(%d)\n", i, j, j)
		}
		sb.WriteString("```\n\n")
	}
	return sb.String()
}

func generateMailMarkdown(sections int) string {
	var sb strings.Builder
	sb.WriteString("# Weekly Report\n\n")
	for i := range sections {
		fmt.Fprintf(&sb, "## Section %d\n\n", i+1)
		sb.WriteString("Text with **bold**, `code` and $a^2+b^2=c^2$.\n\n")
		sb.WriteString("- [x] done\n- [ ] todo\n\n")
		if i%3 == 0 {
			sb.WriteString("```python\nprint('hello')\n```\n\n")
		}
		if i%5 == 0 {
			sb.WriteString("| A | B |\n|---|---|\n| 1 | 2 |\n\n![chart](img/chart.png)\n\n")
		}
	}
	return sb.String()
}
