package render

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// Node is a live DOM element of a settled page.
type Node interface {
	// Screenshot captures the node as PNG at the page's device-scale factor.
	Screenshot(ctx context.Context) ([]byte, error)
	// Eval runs js as a function with this bound to the element, for example
	// "() => this.clientWidth", and returns its JSON result.
	Eval(ctx context.Context, js string) (gson.JSON, error)
	// Query returns the first descendant matching sel.
	Query(ctx context.Context, sel string) (Node, error)
}

// Compile-time interface check.
var _ Node = (*liveNode)(nil)

// liveNode calls are serialized through the owning session's lock and fail
// with ErrSessionClosed once the session is closed.
type liveNode struct {
	s  *Session
	el *rod.Element
}

func (n *liveNode) Screenshot(ctx context.Context) ([]byte, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	if err := expect(n.s.state, Settled); err != nil {
		return nil, err
	}
	ctx, done := n.s.bind(ctx)
	defer done()
	b, err := n.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return b, nil
}

func (n *liveNode) Eval(ctx context.Context, js string) (gson.JSON, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	if err := expect(n.s.state, Settled); err != nil {
		return gson.JSON{}, err
	}
	ctx, done := n.s.bind(ctx)
	defer done()
	res, err := n.el.Context(ctx).Eval(js)
	if err != nil {
		return gson.JSON{}, fmt.Errorf("%w: %v", ErrEval, err)
	}
	return res.Value, nil
}

func (n *liveNode) Query(ctx context.Context, sel string) (Node, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	if err := expect(n.s.state, Settled); err != nil {
		return nil, err
	}
	ctx, done := n.s.bind(ctx)
	defer done()
	els, err := n.el.Context(ctx).Elements(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrQuery, sel, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, sel)
	}
	return &liveNode{s: n.s, el: els[0]}, nil
}
