package render

import (
	"sort"
	"sync"
)

// CachedImage is one image response body observed during a render.
type CachedImage struct {
	Body        []byte
	ContentType string
}

// NetworkImageCache maps the URL the browser requested to the image bytes
// it received. It is filled while the page settles and sealed afterwards.
type NetworkImageCache struct {
	mu      sync.RWMutex
	entries map[string]CachedImage
	sealed  bool
}

// NewNetworkImageCache creates an empty, open cache.
func NewNetworkImageCache() *NetworkImageCache {
	return &NetworkImageCache{entries: make(map[string]CachedImage)}
}

// Put records img under url. It reports false once the cache is sealed.
func (c *NetworkImageCache) Put(url string, img CachedImage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return false
	}
	c.entries[url] = img
	return true
}

// Get returns the image recorded for url.
func (c *NetworkImageCache) Get(url string) (CachedImage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.entries[url]
	return img, ok
}

// Seal stops further writes.
func (c *NetworkImageCache) Seal() {
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (c *NetworkImageCache) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sealed
}

// Len returns the number of recorded images.
func (c *NetworkImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// URLs returns the recorded URLs in sorted order.
func (c *NetworkImageCache) URLs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	urls := make([]string, 0, len(c.entries))
	for u := range c.entries {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
