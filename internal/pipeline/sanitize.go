package pipeline

import "github.com/microcosm-cc/bluemonday"

// newSanitizePolicy allows what the renderer emits (highlight spans with
// inline styles, math spans, task list checkboxes, footnote anchors) on top
// of bluemonday's user generated content policy. Scripts, event handlers and
// javascript: URLs written in the Markdown are removed.
func newSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("style").Globally()
	p.AllowAttrs("id").Globally()
	p.AllowElements("input")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	p.AllowDataURIImages()
	p.AllowRelativeURLs(true)
	p.RequireNoFollowOnLinks(false)
	return p
}
