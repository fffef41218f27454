// Package trim crops the uniform background border around a rendered raster.
//
// Screenshots of typeset formulas carry the whitespace of their layout box.
// Trim scans for pixels that differ from the background color, expands the
// bounding box by a small margin and re-encodes the crop as PNG.
package trim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	// Register decoders for screenshots delivered in other formats.
	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// Defaults for boundary detection.
const (
	DefaultStride = 2 // sample every other row and column
	DefaultMargin = 2 // pixels kept around the detected content
)

// Sentinel errors for trim operations.
var (
	ErrDecode  = errors.New("trim: cannot decode image")
	ErrEncode  = errors.New("trim: cannot encode image")
	ErrOptions = errors.New("trim: invalid options")
)

// Result is the outcome of a trim.
type Result struct {
	PNG     []byte // cropped image, or the input bytes when nothing was trimmed
	Width   int    // width of PNG in physical pixels
	Height  int
	Trimmed bool // false when the image held no foreground pixel
}

type options struct {
	stride int
	margin int
}

// Option tunes boundary detection.
type Option func(*options)

// WithStride sets the sampling step in pixels. 1 scans every pixel.
func WithStride(n int) Option {
	return func(o *options) { o.stride = n }
}

// WithMargin sets the number of background pixels kept around the content.
func WithMargin(n int) Option {
	return func(o *options) { o.margin = n }
}

// Trim crops data to the bounding box of all pixels whose color differs from bg.
//
// An image that is entirely background is returned unmodified with its full
// width, so callers always get a usable image back.
func Trim(data []byte, bg color.Color, opts ...Option) (Result, error) {
	o := options{stride: DefaultStride, margin: DefaultMargin}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stride < 1 || o.margin < 0 {
		return Result{}, fmt.Errorf("%w: stride=%d margin=%d", ErrOptions, o.stride, o.margin)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	box, found := contentBox(img, toNRGBA(bg), o.stride)
	if !found {
		return Result{PNG: data, Width: bounds.Dx(), Height: bounds.Dy()}, nil
	}

	crop := image.Rect(
		box.Min.X-o.margin, box.Min.Y-o.margin,
		box.Max.X+o.margin, box.Max.Y+o.margin,
	).Intersect(bounds)

	dst := image.NewNRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Copy(dst, image.Point{}, img, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return Result{
		PNG:     buf.Bytes(),
		Width:   crop.Dx(),
		Height:  crop.Dy(),
		Trimmed: true,
	}, nil
}

// contentBox returns the half-open rectangle covering every sampled
// foreground pixel. found is false when no sample differs from bg.
func contentBox(img image.Image, bg color.NRGBA, stride int) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y += stride {
		for x := b.Min.X; x < b.Max.X; x += stride {
			if toNRGBA(img.At(x, y)) == bg {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
