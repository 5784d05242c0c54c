package imgurl

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Resolver turns object keys and presets into absolute, fetchable image URLs.
// It is pure configuration: it never touches the network and its output is
// always a syntactically valid URL, even against a host that ignores every
// resize hint.
type Resolver struct {
	baseURL string
	// transform is true for hosts that understand path-segment transform
	// URLs; plain object-store hosts and lightweight proxies get query hints
	// instead, which an incapable host silently ignores.
	transform bool
}

func NewResolver(baseURL string) *Resolver {
	base := strings.TrimRight(baseURL, "/")
	return &Resolver{
		baseURL:   base,
		transform: supportsPathTransforms(base),
	}
}

// supportsPathTransforms reports whether the host is a custom domain rather
// than a default object-store or worker-proxy host. Custom domains sit behind
// the CDN's transform route; everything else only understands query params.
func supportsPathTransforms(base string) bool {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	switch {
	case strings.HasSuffix(host, ".r2.dev"),
		strings.HasSuffix(host, ".workers.dev"),
		host == "localhost",
		host == "127.0.0.1":
		return false
	}
	return true
}

// NormalizeKey rewrites legacy HEIC keys to their browser-renderable JPEG
// counterpart. Idempotent: normalizing twice yields the same key.
func NormalizeKey(key string) string {
	ext := path.Ext(key)
	if strings.EqualFold(ext, ".heic") {
		return strings.TrimSuffix(key, ext) + ".jpeg"
	}
	return key
}

// Resolve builds the URL serving key at the given preset.
func (r *Resolver) Resolve(key string, p Preset) string {
	key = strings.TrimLeft(NormalizeKey(key), "/")

	if r.transform {
		return fmt.Sprintf("%s/transform/w=%d,q=%d,fit=%s,f=auto/%s",
			r.baseURL, p.Width, p.Quality, p.Fit, key)
	}

	v := url.Values{}
	v.Set("w", fmt.Sprintf("%d", p.Width))
	v.Set("q", fmt.Sprintf("%d", p.Quality))
	if p.Fit != "" && p.Fit != FitScaleDown {
		v.Set("fit", string(p.Fit))
	}
	return fmt.Sprintf("%s/%s?%s", r.baseURL, key, v.Encode())
}

// ResolveOriginal builds the full-quality URL with no resize hints at all.
func (r *Resolver) ResolveOriginal(key string) string {
	return r.baseURL + "/" + strings.TrimLeft(NormalizeKey(key), "/")
}
