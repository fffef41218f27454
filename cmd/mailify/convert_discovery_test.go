package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/2bitbit/mailify-md/internal/config"
)

func TestResolveInputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		cfg     *config.Config
		want    string
		wantErr error
	}{
		{"args take precedence", []string{"doc.md"}, &config.Config{Input: config.InputConfig{DefaultDir: "./notes"}}, "doc.md", nil},
		{"config fallback", nil, &config.Config{Input: config.InputConfig{DefaultDir: "./notes"}}, "./notes", nil},
		{"nothing given", nil, &config.Config{}, "", ErrNoInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveInputPath(tt.args, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveInputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		want      string
	}{
		{"next to input", "notes/weekly.md", "", "", filepath.Join("notes", "weekly.html")},
		{"markdown extension", "notes/weekly.markdown", "", "", filepath.Join("notes", "weekly.html")},
		{"explicit html file", "notes/weekly.md", "mail/out.html", "", "mail/out.html"},
		{"explicit html file uppercase", "weekly.md", "OUT.HTML", "", "OUT.HTML"},
		{"output directory", "notes/weekly.md", "mail", "", filepath.Join("mail", "weekly.html")},
		{"mirrored layout", filepath.Join("notes", "2026", "w1.md"), "mail", "notes", filepath.Join("mail", "2026", "w1.html")},
		{"html dir name in batch", filepath.Join("notes", "a.md"), "site.html", "notes", filepath.Join("site.html", "a.html")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir); got != tt.want {
				t.Errorf("resolveOutputPath(%q, %q, %q) = %q, want %q", tt.input, tt.outputDir, tt.baseDir, got, tt.want)
			}
		})
	}
}

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	t.Run("single file", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"a.md": "# A"})
		files, err := discoverFiles(filepath.Join(dir, "a.md"), "")
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].OutputPath != filepath.Join(dir, "a.html") {
			t.Errorf("files = %+v", files)
		}
	})

	t.Run("directory skips other files", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{
			"a.md":          "# A",
			"b.txt":         "skip",
			"sub/c.md":      "# C",
			"sub/theme.css": "skip",
		})
		files, err := discoverFiles(dir, "")
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("found %d files, want 2: %+v", len(files), files)
		}
		if files[1].OutputPath != filepath.Join(dir, "sub", "c.html") {
			t.Errorf("OutputPath = %q", files[1].OutputPath)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"a.txt": "x"})
		if _, err := discoverFiles(filepath.Join(dir, "a.txt"), ""); !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("error = %v, want ErrInvalidExtension", err)
		}
	})

	t.Run("no markdown in directory", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"a.txt": "x"})
		if _, err := discoverFiles(dir, ""); !errors.Is(err, ErrNoMarkdownFiles) {
			t.Errorf("error = %v, want ErrNoMarkdownFiles", err)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		if _, err := discoverFiles(filepath.Join(t.TempDir(), "none.md"), ""); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestDocumentTitle(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"weekly.md":                  "weekly",
		filepath.Join("a", "b.x.md"): "b.x",
		"README.markdown":            "README",
	}
	for in, want := range tests {
		if got := documentTitle(in); got != want {
			t.Errorf("documentTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
