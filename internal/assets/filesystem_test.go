package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeAsset creates {dir}/{sub}/{name} with content.
func writeAsset(t *testing.T, dir, sub, name, content string) {
	t.Helper()
	full := filepath.Join(dir, sub)
	if err := os.MkdirAll(full, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", full, err)
	}
	if err := os.WriteFile(filepath.Join(full, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	t.Run("valid directory", func(t *testing.T) {
		t.Parallel()

		loader, err := NewFilesystemLoader(t.TempDir())
		if err != nil {
			t.Fatalf("NewFilesystemLoader() error = %v", err)
		}
		if loader == nil {
			t.Fatal("NewFilesystemLoader() returned nil")
		}
	})

	t.Run("empty path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewFilesystemLoader("")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewFilesystemLoader(\"\") error = %v, want ErrInvalidBasePath", err)
		}
	})

	t.Run("nonexistent directory returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewFilesystemLoader("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewFilesystemLoader() error = %v, want ErrInvalidBasePath", err)
		}
	})

	t.Run("file instead of directory returns error", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "file.txt")
		if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		_, err := NewFilesystemLoader(filePath)
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewFilesystemLoader() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeAsset(t, tmpDir, "themes", "corporate.css", "/* CODE_STYLE: monokai */ div.container{}")
	writeAsset(t, tmpDir, "templates", "skeleton.html", "<html>"+ContentPlaceholder+"</html>")

	loader, err := NewFilesystemLoader(tmpDir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	t.Run("theme", func(t *testing.T) {
		t.Parallel()

		css, err := loader.LoadTheme("corporate")
		if err != nil {
			t.Fatalf("LoadTheme() error = %v", err)
		}
		if style, _ := ParseCodeStyle(css); style != "monokai" {
			t.Errorf("code style = %q, want monokai", style)
		}
	})

	t.Run("template", func(t *testing.T) {
		t.Parallel()

		got, err := loader.LoadTemplate("skeleton")
		if err != nil {
			t.Fatalf("LoadTemplate() error = %v", err)
		}
		if got != "<html>"+ContentPlaceholder+"</html>" {
			t.Errorf("LoadTemplate() = %q", got)
		}
	})

	t.Run("missing theme", func(t *testing.T) {
		t.Parallel()

		_, err := loader.LoadTheme("nope")
		if !errors.Is(err, ErrThemeNotFound) {
			t.Errorf("LoadTheme() error = %v, want ErrThemeNotFound", err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()

		_, err := loader.LoadTemplate("../skeleton")
		if !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("LoadTemplate() error = %v, want ErrInvalidAssetName", err)
		}
	})
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeAsset(t, outside, ".", "secret.css", "body{}")

	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "themes"), 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "themes", "escape.css")
	if err := os.Symlink(filepath.Join(outside, "secret.css"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	loader, err := NewFilesystemLoader(base)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	_, err = loader.LoadTheme("escape")
	if !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadTheme() error = %v, want ErrPathTraversal", err)
	}
}
