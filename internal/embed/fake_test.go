package embed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ysmood/gson"

	"github.com/2bitbit/mailify-md/internal/render"
)

// fakeNode answers scripted evaluations and returns a fixed screenshot.
type fakeNode struct {
	shot     []byte
	shotErr  error
	evals    map[string]any
	children map[string]*fakeNode
	calls    []string
}

func (n *fakeNode) Screenshot(context.Context) ([]byte, error) {
	n.calls = append(n.calls, "screenshot")
	return n.shot, n.shotErr
}

func (n *fakeNode) Eval(_ context.Context, js string) (gson.JSON, error) {
	n.calls = append(n.calls, js)
	v, ok := n.evals[js]
	if !ok {
		return gson.New(nil), nil
	}
	return gson.New(v), nil
}

func (n *fakeNode) Query(_ context.Context, sel string) (render.Node, error) {
	if c, ok := n.children[sel]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", render.ErrNodeNotFound, sel)
}

// fakeLive is a settled page keyed by selector.
type fakeLive struct {
	scale float64
	nodes map[string][]*fakeNode
}

func (l *fakeLive) QueryAll(_ context.Context, sel string) ([]render.Node, error) {
	out := make([]render.Node, 0, len(l.nodes[sel]))
	for _, n := range l.nodes[sel] {
		out = append(out, n)
	}
	return out, nil
}

func (l *fakeLive) Query(ctx context.Context, sel string) (render.Node, error) {
	nodes, _ := l.QueryAll(ctx, sel)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %q", render.ErrNodeNotFound, sel)
	}
	return nodes[0], nil
}

func (l *fakeLive) DeviceScale() float64 {
	return l.scale
}

type fakeCache map[string]render.CachedImage

func (c fakeCache) Get(url string) (render.CachedImage, bool) {
	img, ok := c[url]
	return img, ok
}

// solidPNG draws fg over content on a w×h canvas filled with bg.
func solidPNG(t *testing.T, w, h int, bg, fg color.Color, content image.Rectangle) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := bg
			if (image.Point{X: x, Y: y}).In(content) {
				c = fg
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
