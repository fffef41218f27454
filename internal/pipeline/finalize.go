package pipeline

import (
	"context"
	"fmt"

	"github.com/2bitbit/mailify-md/internal/dom"
)

// Selectors of nodes an email client cannot use.
const (
	scriptSelector     = "script"
	stylesheetSelector = `link[rel~="stylesheet" i]`
)

// Inliner moves style rules onto the elements they match.
type Inliner interface {
	Inline(htmlDoc string) (string, error)
}

// Finalize strips scripts and external stylesheet links from tree,
// serializes it and inlines its CSS. The result is the job's output.
func Finalize(ctx context.Context, tree *dom.Tree, inliner Inliner) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, sel := range []string{scriptSelector, stylesheetSelector} {
		if _, err := tree.RemoveAll(sel); err != nil {
			return "", err
		}
	}

	doc, err := tree.Render()
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := inliner.Inline(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInlineCSS, err)
	}
	return out, nil
}
