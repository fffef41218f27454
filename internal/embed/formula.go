package embed

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/2bitbit/mailify-md/internal/dom"
	"github.com/2bitbit/mailify-md/internal/render"
	"github.com/2bitbit/mailify-md/internal/trim"
)

// FormulaSelector matches one node per typeset formula: the display wrapper
// of block formulas and the .katex span of inline ones.
const FormulaSelector = ".katex-display, :not(.katex-display) > .katex"

// Scripts evaluated against live nodes.
const (
	jsBackground = `() => getComputedStyle(this).backgroundColor`
	jsHideSource = `() => this.querySelectorAll(".katex-mathml").forEach(e => { e.style.display = "none"; })`
	jsWidth      = `() => this.clientWidth`
)

const (
	displayClass    = "katex-display"
	typesetSelector = ".katex-html"
	blockStyle      = "display: block; margin: 0.5em auto; width: %dpx; height: auto; max-width: 100%%;"
	inlineStyle     = "width: %dpx; height: auto; vertical-align: middle; max-width: 100%%;"
)

var texAnnotation = cascadia.MustCompile(`annotation[encoding="application/x-tex"]`)

// FormulaConfig tunes formula embedding.
type FormulaConfig struct {
	// ContainerSelector locates the element whose background is trimmed
	// away. Missing or transparent backgrounds count as white.
	ContainerSelector string
	// TrimOptions are passed to trim.Trim.
	TrimOptions []trim.Option
}

type formulaImage struct {
	static *html.Node
	img    *html.Node
}

// Formulas replaces every formula of tree with a PNG of its live rendering.
//
// Live and static formulas are paired by document order. When their counts
// differ nothing is embedded and ErrFormulaMismatch is returned. Any failure
// to capture a formula also leaves tree untouched.
func Formulas(ctx context.Context, live LiveDOM, tree *dom.Tree, cfg FormulaConfig) (Report, error) {
	static, err := tree.QueryAll(FormulaSelector)
	if err != nil {
		return Report{}, err
	}
	nodes, err := live.QueryAll(ctx, FormulaSelector)
	if err != nil {
		return Report{}, err
	}
	if len(nodes) != len(static) {
		return Report{}, fmt.Errorf("%w: live=%d static=%d", ErrFormulaMismatch, len(nodes), len(static))
	}
	if len(nodes) == 0 {
		return Report{}, nil
	}

	bg, err := readBackground(ctx, live, cfg.ContainerSelector)
	if err != nil {
		return Report{}, err
	}
	scale := live.DeviceScale()

	var r Report
	images := make([]formulaImage, 0, len(nodes))
	for i, n := range nodes {
		block := dom.HasClass(static[i], displayClass)
		img, err := captureFormula(ctx, n, block, bg, scale, cfg.TrimOptions)
		if err != nil {
			return Report{}, fmt.Errorf("%w %d: %w", ErrFormula, i, err)
		}
		alt := texSource(static[i])
		if alt == "" {
			r.warn(KindFormula, fmt.Sprintf("formula %d", i+1), "no TeX annotation, alt text left empty")
		}
		dom.SetAttr(img, "alt", alt)
		images = append(images, formulaImage{static: static[i], img: img})
	}

	for _, fi := range images {
		dom.Replace(fi.static, fi.img)
	}
	r.Embedded = len(images)
	return r, nil
}

// readBackground reads the computed background of the content container.
func readBackground(ctx context.Context, live LiveDOM, sel string) (color.RGBA, error) {
	if sel == "" {
		return white, nil
	}
	c, err := live.Query(ctx, sel)
	if errors.Is(err, render.ErrNodeNotFound) {
		return white, nil
	}
	if err != nil {
		return color.RGBA{}, err
	}
	v, err := c.Eval(ctx, jsBackground)
	if err != nil {
		return color.RGBA{}, err
	}
	return parseComputedColor(v.Str()), nil
}

// captureFormula screenshots the typeset part of n and builds the sized
// replacement image. Block formulas are centred on their own line.
func captureFormula(ctx context.Context, n render.Node, block bool, bg color.RGBA, scale float64, opts []trim.Option) (*html.Node, error) {
	target, err := n.Query(ctx, typesetSelector)
	if errors.Is(err, render.ErrNodeNotFound) {
		// No separate typeset node: capture the whole formula without its
		// MathML source.
		if _, err := n.Eval(ctx, jsHideSource); err != nil {
			return nil, err
		}
		target = n
	} else if err != nil {
		return nil, err
	}

	shot, err := target.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	res, err := trim.Trim(shot, bg, opts...)
	if err != nil {
		return nil, err
	}

	style := inlineStyle
	if block {
		style = blockStyle
	}
	return dom.NewElement("img",
		html.Attribute{Key: "src", Val: dataURI("image/png", res.PNG)},
		html.Attribute{Key: "style", Val: fmt.Sprintf(style, logicalWidth(res.Width, scale))},
	), nil
}

// logicalWidth converts physical pixels to CSS pixels, dropping any
// fractional pixel so the image never renders wider than its capture.
func logicalWidth(physical int, scale float64) int {
	if scale <= 0 {
		return physical
	}
	return int(math.Floor(float64(physical) / scale))
}

// texSource returns the TeX annotation of a static formula, or "".
func texSource(n *html.Node) string {
	a := texAnnotation.MatchFirst(n)
	if a == nil {
		return ""
	}
	return strings.TrimSpace(dom.Text(a))
}
