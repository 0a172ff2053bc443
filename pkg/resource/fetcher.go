// Package resource loads external resources referenced by a document:
// images, stylesheets and scripts, from data URIs, files or HTTP.
package resource

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// MaxSize bounds the size of a fetched resource.
const MaxSize = 32 << 20

var (
	ErrTooLarge    = errors.New("resource too large")
	ErrUnsupported = errors.New("unsupported URI scheme")
)

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(uri string) (body []byte, contentType string, err error)
}

// DefaultFetcher fetches data URIs, local files and HTTP/HTTPS resources,
// resolving relative URIs against a base URL or directory.
type DefaultFetcher struct {
	baseURL string

	// Client is used for network URLs; nil uses a shared client.
	Client *http.Client

	// AllowNetwork enables HTTP/HTTPS fetching.
	AllowNetwork bool
}

// NewFetcher creates a DefaultFetcher with the given base URL.
// Relative URIs passed to Fetch will be resolved against this base.
func NewFetcher(baseURL string) *DefaultFetcher {
	return &DefaultFetcher{baseURL: baseURL, AllowNetwork: true}
}

// Fetch retrieves the resource at the given URI.
// Relative URIs are resolved against the fetcher's base URL.
func (f *DefaultFetcher) Fetch(uri string) ([]byte, string, error) {
	uri = strings.TrimSpace(uri)
	if IsDataURI(uri) {
		return DecodeDataURI(uri)
	}
	resolved := f.Resolve(uri)
	switch {
	case IsNetworkURL(resolved):
		if !f.AllowNetwork {
			return nil, "", fmt.Errorf("%s: network access disabled: %w", resolved, ErrUnsupported)
		}
		client := f.Client
		if client == nil {
			client = httpClient
		}
		return fetchHTTP(client, resolved)
	case strings.HasPrefix(resolved, "file:"):
		u, err := url.Parse(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", resolved, err)
		}
		return readFile(u.Path)
	case strings.Contains(resolved, "://"):
		return nil, "", fmt.Errorf("%s: %w", resolved, ErrUnsupported)
	}
	return readFile(resolved)
}

// Resolve returns uri made absolute against the base.
func (f *DefaultFetcher) Resolve(uri string) string {
	if f.baseURL == "" || IsNetworkURL(uri) || IsDataURI(uri) || filepath.IsAbs(uri) {
		return uri
	}
	if IsNetworkURL(f.baseURL) || strings.HasPrefix(f.baseURL, "file:") {
		return ResolveURL(f.baseURL, uri)
	}
	return filepath.Join(f.baseURL, filepath.FromSlash(uri))
}

func readFile(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.Size() > MaxSize {
		return nil, "", fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return body, contentTypeOf(path), nil
}

func contentTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".css":
		return "text/css"
	case ".js":
		return "text/javascript"
	}
	return ""
}

// DecodeDataURI returns the payload and media type of a data: URI.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !IsDataURI(uri) {
		return nil, "", fmt.Errorf("not a data URI")
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data URI: missing comma")
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	isBase64 := strings.HasSuffix(meta, ";base64")
	mediaType := strings.TrimSuffix(meta, ";base64")
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if isBase64 {
		body, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload), ""))
		if err != nil {
			return nil, "", fmt.Errorf("decoding data URI: %w", err)
		}
		return body, mediaType, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data URI: %w", err)
	}
	return []byte(text), mediaType, nil
}

// FetchText fetches a stylesheet or script URI and returns its text content.
// Returns an error if the content type does not look like text.
func (f *DefaultFetcher) FetchText(uri string) (string, error) {
	body, contentType, err := f.Fetch(uri)
	if err != nil {
		return "", err
	}
	ct := strings.ToLower(contentType)
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "css") && !strings.Contains(ct, "javascript") {
		return "", fmt.Errorf("unexpected content type for text: %s", contentType)
	}
	return string(body), nil
}

// FetchImage fetches an image URI and returns its raw bytes.
func (f *DefaultFetcher) FetchImage(uri string) ([]byte, error) {
	body, _, err := f.Fetch(uri)
	if err != nil {
		return nil, err
	}
	return body, nil
}
