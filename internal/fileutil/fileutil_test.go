package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes content and leaves no temp file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "out.html")

		if err := WriteFileAtomic(path, []byte("<p>hi</p>"), 0644); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading result: %v", err)
		}
		if string(got) != "<p>hi</p>" {
			t.Errorf("content = %q", got)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("directory holds %d entries, want 1", len(entries))
		}
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.html")
		if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := WriteFileAtomic(path, []byte("new"), 0644); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "new" {
			t.Errorf("content = %q, want new", got)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		if err := WriteFileAtomic("", nil, 0644); !errors.Is(err, ErrEmptyPath) {
			t.Errorf("error = %v, want ErrEmptyPath", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing", "out.html")
		if err := WriteFileAtomic(path, []byte("x"), 0644); err == nil {
			t.Error("expected error for missing parent directory")
		}
	})
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	if err := os.WriteFile(file, []byte{1}, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"regular file", file, true},
		{"directory", dir, false},
		{"missing", filepath.Join(dir, "b.png"), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassifiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantPath bool
		wantURL  bool
		wantData bool
	}{
		{"dark", false, false, false},
		{"./brand.css", true, false, false},
		{`C:\themes\brand.css`, true, false, false},
		{"https://example.com/a.png", true, true, false},
		{"HTTP://EXAMPLE.COM/A.PNG", true, true, false},
		{"httpfoo.png", false, false, false},
		{"data:image/png;base64,AAAA", false, false, true},
		{"  DATA:image/gif;base64,AA", false, false, true},
		{"images/logo.png", true, false, false},
	}

	for _, tt := range tests {
		if got := IsFilePath(tt.in); got != tt.wantPath {
			t.Errorf("IsFilePath(%q) = %v, want %v", tt.in, got, tt.wantPath)
		}
		if got := IsURL(tt.in); got != tt.wantURL {
			t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.wantURL)
		}
		if got := IsDataURI(tt.in); got != tt.wantData {
			t.Errorf("IsDataURI(%q) = %v, want %v", tt.in, got, tt.wantData)
		}
	}
}

func TestResolveLocal(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}

	tests := []struct {
		name    string
		baseDir string
		src     string
		want    string
	}{
		{"relative", "/docs", "img/a.png", "/docs/img/a.png"},
		{"dot relative", "/docs", "./a.png", "/docs/a.png"},
		{"parent", "/docs/sub", "../a.png", "/docs/a.png"},
		{"absolute kept", "/docs", "/abs/a.png", "/abs/a.png"},
		{"file URL", "/docs", "file:///abs/a.png", "/abs/a.png"},
		{"no base dir", "", "a.png", "a.png"},
		{"surrounding spaces", "/docs", "  a.png ", "/docs/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveLocal(tt.baseDir, tt.src); got != tt.want {
				t.Errorf("ResolveLocal(%q, %q) = %q, want %q", tt.baseDir, tt.src, got, tt.want)
			}
		})
	}
}
