package intercept

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Class is the request category driving strategy selection.
type Class int

const (
	// ClassDefault: no specific rule matched; network-first.
	ClassDefault Class = iota
	// ClassImage: remote object-store or resize-proxy image.
	ClassImage
	// ClassLegacyThumb: legacy third-party thumbnail provider.
	ClassLegacyThumb
	// ClassRelay: short-lived CORS relay endpoint.
	ClassRelay
	// ClassNavigation: same-origin document request.
	ClassNavigation
	// ClassStatic: same-origin static build asset.
	ClassStatic
)

func (c Class) String() string {
	switch c {
	case ClassImage:
		return "image"
	case ClassLegacyThumb:
		return "legacy_thumb"
	case ClassRelay:
		return "relay"
	case ClassNavigation:
		return "navigation"
	case ClassStatic:
		return "static"
	}
	return "default"
}

var (
	legacyThumbHost = "drive.google.com"

	relayHosts = map[string]bool{
		"api.allorigins.win": true,
		"corsproxy.io":       true,
	}

	imageExts = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}

	staticExts = map[string]bool{
		".js": true, ".css": true, ".woff": true, ".woff2": true,
		".png": true, ".jpg": true, ".jpeg": true, ".svg": true, ".ico": true,
	}
)

// Classifier maps a request to its Class. Host is the application's own
// origin host; everything else is third-party.
type Classifier struct {
	Host string
}

// Classify picks the most specific matching class for a GET request.
func (c *Classifier) Classify(req *http.Request) Class {
	u := req.URL

	if isImageHost(u) {
		return ClassImage
	}
	if u.Hostname() == legacyThumbHost && strings.Contains(u.Path, "thumbnail") {
		return ClassLegacyThumb
	}
	if relayHosts[u.Hostname()] {
		return ClassRelay
	}

	if c.sameOrigin(u) {
		if isNavigation(req) {
			return ClassNavigation
		}
		if strings.Contains(u.Path, "/static/") || staticExts[strings.ToLower(path.Ext(u.Path))] {
			return ClassStatic
		}
	}
	return ClassDefault
}

func (c *Classifier) sameOrigin(u *url.URL) bool {
	return c.Host != "" && u.Host == c.Host
}

// isImageHost recognises the object-store public buckets and the resize
// proxy in front of them.
func isImageHost(u *url.URL) bool {
	host := u.Hostname()
	if strings.HasSuffix(host, ".r2.dev") || strings.Contains(host, "cloudflare") {
		return true
	}
	return strings.HasPrefix(host, "pub-") && imageExts[strings.ToLower(path.Ext(u.Path))]
}

// isNavigation detects a document request the way browsers mark them.
func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
