//go:build integration

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testTimeout = 30 * time.Second

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// TestSession_Lifecycle_Integration renders a page that loads a remote
// image and sets the ready flag itself. Rod downloads Chromium if needed.
func TestSession_Lifecycle_Integration(t *testing.T) {
	t.Parallel()

	imgData := pngBytes(t, 40, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imgData)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	s := NewSession(WithDeviceScale(2))
	defer s.Close()

	if err := s.Launch(ctx); err != nil {
		t.Fatalf("Launch() error: %v", err)
	}
	doc := fmt.Sprintf(`<!DOCTYPE html><html><body>
<div class="container" style="background: rgb(255, 255, 255)">
<img src="%s/pic.png" style="width: 40px">
</div>
<script>window.__mailifyTypeset = true;</script>
</body></html>`, srv.URL)

	if err := s.LoadContent(ctx, doc); err != nil {
		t.Fatalf("LoadContent() error: %v", err)
	}
	if err := s.WaitSettled(ctx); err != nil {
		t.Fatalf("WaitSettled() error: %v", err)
	}
	if !s.Images().Sealed() {
		t.Error("image cache should be sealed once settled")
	}

	cached, ok := s.Images().Get(srv.URL + "/pic.png")
	if !ok {
		t.Fatalf("image not cached, have %v", s.Images().URLs())
	}
	if !bytes.Equal(cached.Body, imgData) {
		t.Error("cached body differs from served image")
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if !strings.HasPrefix(snap, "<!DOCTYPE html>") || !strings.Contains(snap, "pic.png") {
		t.Errorf("unexpected snapshot: %.200s", snap)
	}
	if _, err := s.Snapshot(ctx); !errors.Is(err, ErrSnapshotTaken) {
		t.Errorf("second Snapshot() error = %v, want ErrSnapshotTaken", err)
	}

	imgs, err := s.QueryAll(ctx, "img")
	if err != nil || len(imgs) != 1 {
		t.Fatalf("QueryAll() = %d nodes, err %v", len(imgs), err)
	}
	width, err := imgs[0].Eval(ctx, "() => this.clientWidth")
	if err != nil {
		t.Fatalf("Eval() error: %v", err)
	}
	if width.Int() != 40 {
		t.Errorf("clientWidth = %d, want 40", width.Int())
	}

	shot, err := imgs[0].Screenshot(ctx)
	if err != nil {
		t.Fatalf("Screenshot() error: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(shot))
	if err != nil {
		t.Fatalf("screenshot is not a PNG: %v", err)
	}
	if cfg.Width != 80 {
		t.Errorf("screenshot width = %d, want 80 at scale 2", cfg.Width)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := imgs[0].Screenshot(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Screenshot() after Close error = %v, want ErrSessionClosed", err)
	}
}

func TestSession_SettleTimeout_Integration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSession(WithTimeout(2 * time.Second))
	defer s.Close()

	if err := s.Launch(ctx); err != nil {
		t.Fatalf("Launch() error: %v", err)
	}
	// The ready flag is never set.
	if err := s.LoadContent(ctx, "<!DOCTYPE html><html><body><p>x</p></body></html>"); err != nil {
		t.Fatalf("LoadContent() error: %v", err)
	}
	if err := s.WaitSettled(ctx); !errors.Is(err, ErrSettleTimeout) {
		t.Errorf("WaitSettled() error = %v, want ErrSettleTimeout", err)
	}
}
