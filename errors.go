package mailify

import (
	"errors"

	"github.com/2bitbit/mailify-md/internal/assets"
	"github.com/2bitbit/mailify-md/internal/embed"
	"github.com/2bitbit/mailify-md/internal/pipeline"
	"github.com/2bitbit/mailify-md/internal/render"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown    = errors.New("markdown content cannot be empty")
	ErrConverterClosed  = errors.New("converter is closed")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)

// Configuration errors, returned before any browser is started.
var (
	ErrThemeNotFound      = assets.ErrThemeNotFound
	ErrFrontMatter        = pipeline.ErrFrontMatter
	ErrMissingPlaceholder = pipeline.ErrMissingPlaceholder
	ErrHTMLConversion     = pipeline.ErrHTMLConversion
)

// Render errors.
var (
	ErrBrowserConnect = render.ErrBrowserConnect
	ErrPageCreate     = render.ErrPageCreate
	ErrPageLoad       = render.ErrPageLoad
	ErrSettleTimeout  = render.ErrSettleTimeout
	ErrSessionClosed  = render.ErrSessionClosed
	ErrScreenshot     = render.ErrScreenshot
)

// Embedding and output errors.
var (
	ErrFormulaMismatch = embed.ErrFormulaMismatch
	ErrFormula         = embed.ErrFormula
	ErrInlineCSS       = pipeline.ErrInlineCSS
)
