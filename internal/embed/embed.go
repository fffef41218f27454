// Package embed turns the remaining external content of a settled document
// into data URIs.
//
// The static tree is the only copy that is written. The live page is read
// for measurements and screenshots, paired with static nodes by selector
// order. Formulas are embedded first, so that the image passes never see
// the images formulas become.
package embed

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/2bitbit/mailify-md/internal/render"
)

// Sentinel errors for embedding.
var (
	ErrFormulaMismatch = errors.New("live and static formula counts differ")
	ErrFormula         = errors.New("cannot embed formula")
)

// LiveDOM is the settled browser page.
type LiveDOM interface {
	QueryAll(ctx context.Context, sel string) ([]render.Node, error)
	Query(ctx context.Context, sel string) (render.Node, error)
	DeviceScale() float64
}

// ImageCache looks up image bodies by the URL the browser requested.
type ImageCache interface {
	Get(url string) (render.CachedImage, bool)
}

// Compile-time interface checks.
var (
	_ LiveDOM    = (*render.Session)(nil)
	_ ImageCache = (*render.NetworkImageCache)(nil)
)

// WarningKind names the pass that produced a warning.
type WarningKind string

// Warning kinds.
const (
	KindFormula WarningKind = "formula"
	KindRemote  WarningKind = "remote"
	KindLocal   WarningKind = "local"
)

// Warning is a recoverable per-asset failure. The image it names is left
// as it was.
type Warning struct {
	Kind   WarningKind
	Src    string
	Reason string
}

func (w Warning) String() string {
	if w.Kind == KindFormula {
		return w.Src + ": " + w.Reason
	}
	return string(w.Kind) + " image " + w.Src + ": " + w.Reason
}

// Report summarizes one embedding pass.
type Report struct {
	Embedded int
	Warnings []Warning
}

// Merge adds other to r.
func (r *Report) Merge(other Report) {
	r.Embedded += other.Embedded
	r.Warnings = append(r.Warnings, other.Warnings...)
}

func (r *Report) warn(kind WarningKind, src, reason string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Src: src, Reason: reason})
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
