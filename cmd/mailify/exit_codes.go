package main

import (
	"errors"
	"os"

	mailify "github.com/2bitbit/mailify-md"
	"github.com/2bitbit/mailify-md/internal/config"
)

// Exit codes for the mailify CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, theme, or input document
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mailify.ErrBrowserConnect) ||
		errors.Is(err, mailify.ErrPageCreate) ||
		errors.Is(err, mailify.ErrPageLoad) ||
		errors.Is(err, mailify.ErrSettleTimeout) ||
		errors.Is(err, mailify.ErrScreenshot) {
		return ExitBrowser
	}

	// Usage/config/validation errors (exit 2). Checked before I/O so a
	// missing theme or config file reports as a usage error.
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, mailify.ErrEmptyMarkdown) ||
		errors.Is(err, mailify.ErrThemeNotFound) ||
		errors.Is(err, mailify.ErrFrontMatter) ||
		errors.Is(err, mailify.ErrMissingPlaceholder) ||
		errors.Is(err, mailify.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteHTML) ||
		errors.Is(err, ErrOutputDir) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoMarkdownFiles) {
		return ExitIO
	}

	return ExitGeneral
}
