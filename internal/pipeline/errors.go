package pipeline

import "errors"

// Sentinel errors for pipeline stages.
var (
	ErrHTMLConversion     = errors.New("HTML conversion failed")
	ErrFrontMatter        = errors.New("invalid front matter")
	ErrMissingPlaceholder = errors.New("skeleton has no content placeholder")
	ErrSkeleton           = errors.New("skeleton template rendering failed")
	ErrInlineCSS          = errors.New("CSS inlining failed")
)
