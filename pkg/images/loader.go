// Package images decodes and caches the pictures referenced by <image>
// elements.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/resource"
)

// ImageCache caches loaded images, and load failures, by URI.
type ImageCache struct {
	fetcher resource.Fetcher

	mu     sync.RWMutex
	cache  map[string]image.Image
	failed map[string]error
}

// NewCache creates a cache loading through f. A nil fetcher reads local
// files and data URIs only.
func NewCache(f resource.Fetcher) *ImageCache {
	if f == nil {
		f = &resource.DefaultFetcher{}
	}
	return &ImageCache{
		fetcher: f,
		cache:   make(map[string]image.Image),
		failed:  make(map[string]error),
	}
}

// Global image cache
var globalCache = NewCache(nil)

// Load returns the decoded image at uri.
func (c *ImageCache) Load(uri string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.cache[uri]
	err := c.failed[uri]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}
	if err != nil {
		return nil, err
	}

	img, err = c.decode(uri)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed[uri] = err
		return nil, err
	}
	c.cache[uri] = img
	return img, nil
}

func (c *ImageCache) decode(uri string) (image.Image, error) {
	body, _, err := c.fetcher.Fetch(uri)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding %.40s: %w", uri, err)
	}
	return img, nil
}

// Image implements the builder's image source for an <image> element.
func (c *ImageCache) Image(n *dom.Node) (image.Image, bool) {
	href := n.Href()
	if href == "" {
		return nil, false
	}
	img, err := c.Load(href)
	return img, err == nil
}

// Available reports whether the external resource of n can be used. It is
// consulted for elements with externalResourcesRequired="true"; elements
// without an href have nothing to wait for.
func (c *ImageCache) Available(n *dom.Node) bool {
	if !n.Is("image") || n.Href() == "" {
		return true
	}
	_, ok := c.Image(n)
	return ok
}

// LoadImage loads an image from the filesystem or a data URI
func LoadImage(path string) (image.Image, error) {
	return globalCache.Load(path)
}

// IsDataURI reports whether uri carries its data inline.
func IsDataURI(uri string) bool { return resource.IsDataURI(uri) }

// LoadImageFromDataURI decodes a data URI without caching it.
func LoadImageFromDataURI(uri string) (image.Image, error) {
	body, _, err := resource.DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding data URI: %w", err)
	}
	return img, nil
}

// GetImageDimensions returns the width and height of an image
func GetImageDimensions(path string) (width, height int, err error) {
	img, err := LoadImage(path)
	if err != nil {
		return 0, 0, err
	}

	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}
