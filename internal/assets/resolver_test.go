package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver(\"\") error = %v", err)
		}
		if resolver.HasCustomLoader() {
			t.Error("expected no custom loader for empty path")
		}
	})

	t.Run("invalid custom path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestAssetResolver_Fallback(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeAsset(t, tmpDir, "themes", "light.css", "/* CODE_STYLE: vim */ custom-light")
	writeAsset(t, tmpDir, "themes", "brand.css", "brand")

	resolver, err := NewAssetResolver(tmpDir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	tests := []struct {
		name    string
		load    func() (string, error)
		want    string
		wantErr error
	}{
		{
			name: "custom overrides embedded preset",
			load: func() (string, error) { return resolver.LoadTheme("light") },
			want: "custom-light",
		},
		{
			name: "custom-only theme",
			load: func() (string, error) { return resolver.LoadTheme("brand") },
			want: "brand",
		},
		{
			name: "falls back to embedded preset",
			load: func() (string, error) { return resolver.LoadTheme("dark") },
			want: "CODE_STYLE: github-dark",
		},
		{
			name: "falls back to embedded skeleton",
			load: func() (string, error) { return resolver.LoadTemplate(SkeletonTemplate) },
			want: ContentPlaceholder,
		},
		{
			name:    "unknown everywhere",
			load:    func() (string, error) { return resolver.LoadTheme("sepia") },
			wantErr: ErrThemeNotFound,
		},
		{
			name:    "validation error does not fall back",
			load:    func() (string, error) { return resolver.LoadTheme("a.b") },
			wantErr: ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.load()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
