package embed

import (
	"context"
	"fmt"
	"html"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/2bitbit/mailify-md/internal/dom"
	"github.com/2bitbit/mailify-md/internal/fileutil"
	"github.com/2bitbit/mailify-md/internal/render"
)

// RemoteSelector matches images loaded over the network. It is run against
// both trees, so it only uses what the browser and the static matcher share.
const RemoteSelector = `img[src^="http:" i], img[src^="https:" i]`

const remoteStyle = "width: %dpx; height: auto;"

// jsCurrentSrc reads the URL the browser actually requested, which is the
// normalised form the network cache is keyed by.
const jsCurrentSrc = `() => this.currentSrc`

// RemoteImages embeds every remote image the page loaded during the render.
//
// The cached body only proves the image was served; the embedded bytes are a
// screenshot of the live node, so any source format (SVG included) ends up
// as PNG at its rendered width. Images that were not served, or that cannot
// be paired with a live node, are reported and left unchanged.
func RemoteImages(ctx context.Context, live LiveDOM, tree *dom.Tree, cache ImageCache) Report {
	var r Report

	static, err := tree.QueryAll(RemoteSelector)
	if err != nil || len(static) == 0 {
		return r
	}
	nodes, err := live.QueryAll(ctx, RemoteSelector)
	if err != nil {
		for _, n := range static {
			src, _ := dom.Attr(n, "src")
			r.warn(KindRemote, src, err.Error())
		}
		return r
	}
	if len(nodes) != len(static) {
		for _, n := range static {
			src, _ := dom.Attr(n, "src")
			r.warn(KindRemote, src, fmt.Sprintf("page holds %d remote images, document %d", len(nodes), len(static)))
		}
		return r
	}

	for i, n := range static {
		raw, _ := dom.Attr(n, "src")
		src := html.UnescapeString(strings.TrimSpace(raw))

		cached, ok := lookupRemote(ctx, nodes[i], src, cache)
		if !ok {
			r.warn(KindRemote, src, "not loaded by the browser")
			continue
		}
		if !isImage(cached.ContentType, cached.Body) {
			r.warn(KindRemote, src, "response is not an image: "+cached.ContentType)
			continue
		}

		shot, err := nodes[i].Screenshot(ctx)
		if err != nil {
			r.warn(KindRemote, src, err.Error())
			continue
		}
		width, err := nodes[i].Eval(ctx, jsWidth)
		if err != nil {
			r.warn(KindRemote, src, err.Error())
			continue
		}

		dom.SetAttr(n, "src", dataURI("image/png", shot))
		dom.SetAttr(n, "style", fmt.Sprintf(remoteStyle, width.Int()))
		r.Embedded++
	}
	return r
}

// lookupRemote finds the cached response for a live image, by the URL the
// browser requested and then by the attribute value.
func lookupRemote(ctx context.Context, node render.Node, src string, cache ImageCache) (render.CachedImage, bool) {
	if v, err := node.Eval(ctx, jsCurrentSrc); err == nil {
		if cur, ok := v.Val().(string); ok && cur != "" && cur != src {
			if img, ok := cache.Get(cur); ok {
				return img, true
			}
		}
	}
	return cache.Get(src)
}

// LocalImages embeds images that refer to files, resolved against baseDir.
// Missing files and files whose type cannot be told from their extension
// are reported and left unchanged.
func LocalImages(tree *dom.Tree, baseDir string) Report {
	var r Report

	nodes, err := tree.QueryAll("img[src]")
	if err != nil {
		return r
	}
	for _, n := range nodes {
		src, _ := dom.Attr(n, "src")
		src = strings.TrimSpace(src)
		if src == "" || fileutil.IsURL(src) || fileutil.IsDataURI(src) {
			continue
		}

		path, ok := locate(baseDir, src)
		if !ok {
			r.warn(KindLocal, src, "file not found")
			continue
		}
		ext := filepath.Ext(path)
		if ext == "" {
			r.warn(KindLocal, src, "file has no extension")
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			r.warn(KindLocal, src, err.Error())
			continue
		}
		mimeType := localMIME(ext, data)
		if mimeType == "" {
			r.warn(KindLocal, src, "unknown image type "+ext)
			continue
		}

		dom.SetAttr(n, "src", dataURI(mimeType, data))
		r.Embedded++
	}
	return r
}

// locate resolves src to an existing file, trying the percent-decoded form
// Markdown links often use for spaces.
func locate(baseDir, src string) (string, bool) {
	if p := fileutil.ResolveLocal(baseDir, src); fileutil.FileExists(p) {
		return p, true
	}
	unescaped, err := url.PathUnescape(src)
	if err != nil || unescaped == src {
		return "", false
	}
	p := fileutil.ResolveLocal(baseDir, unescaped)
	return p, fileutil.FileExists(p)
}

// localMIME derives the image MIME type from ext, sniffing the content when
// the extension is not registered. It returns "" for anything but images.
func localMIME(ext string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
		t, _, _ = strings.Cut(t, ";")
		if !strings.HasPrefix(t, "image/") {
			return ""
		}
		return t
	}
	if m := mimetype.Detect(data); strings.HasPrefix(m.String(), "image/") {
		t, _, _ := strings.Cut(m.String(), ";")
		return t
	}
	return ""
}

func isImage(contentType string, body []byte) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return true
	}
	return strings.HasPrefix(mimetype.Detect(body).String(), "image/")
}
