// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/2bitbit/mailify-md/internal/assets"
	"github.com/2bitbit/mailify-md/internal/config"
	"github.com/2bitbit/mailify-md/internal/embed"
	"github.com/2bitbit/mailify-md/internal/fileutil"
	"github.com/2bitbit/mailify-md/internal/pipeline"
	"github.com/2bitbit/mailify-md/internal/render"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// For returns the hint matching err, or "" when none applies.
// getenv is usually os.Getenv.
func For(err error, getenv func(string) string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, render.ErrBrowserConnect):
		return forBrowserConnect(getenv)
	case errors.Is(err, render.ErrSettleTimeout):
		return format("formulas need the KaTeX scripts to load; raise --timeout or point --katex-url at a reachable mirror")
	case errors.Is(err, render.ErrPageLoad):
		return format("the page could not load; check the theme CSS and network access")
	case errors.Is(err, embed.ErrFormulaMismatch):
		return format("a formula did not typeset; check the TeX between $ delimiters")
	case errors.Is(err, assets.ErrThemeNotFound):
		return format("available: " + strings.Join(assets.ThemeNames(), ", ") + "; or pass a CSS file path")
	case errors.Is(err, pipeline.ErrFrontMatter):
		return format("front matter must be a YAML block between two --- lines at the top")
	case errors.Is(err, config.ErrConfigNotFound):
		return forConfigNotFound()
	}
	return ""
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// forBrowserConnect detects CI/Docker and suggests relevant environment variables.
func forBrowserConnect(getenv func(string) string) string {
	var hints []string

	inCI := getenv("CI") != "" ||
		getenv("GITHUB_ACTIONS") != "" ||
		getenv("GITLAB_CI") != "" ||
		getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && getenv(render.EnvNoSandbox) != "1" {
		hints = append(hints, "set "+render.EnvNoSandbox+"=1 for Docker/CI")
	}
	if getenv(render.EnvBrowserBin) == "" {
		hints = append(hints, "set "+render.EnvBrowserBin+" to use a custom Chrome")
	}
	hints = append(hints, "run 'mailify doctor' to diagnose")

	return format(strings.Join(hints, "; "))
}

func forConfigNotFound() string {
	hint := "use --config /path/to/file.yaml"
	if dir, err := os.UserConfigDir(); err == nil {
		hint += " or create one in " + filepath.Join(dir, "mailify")
	}
	return format(hint)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
