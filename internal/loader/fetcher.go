package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// ImageFetcher retrieves one image asset. Implementations report only
// success or failure; the bytes land in the HTTP-level caches, which is all
// the loader needs.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) error
}

// HTTPFetcher fetches through an http.Client, typically one whose transport
// is the interception layer so every load also warms the byte cache.
type HTTPFetcher struct {
	Client *http.Client
}

var _ ImageFetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) FetchImage(ctx context.Context, url string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d for %q", resp.StatusCode, url)
	}

	// drain so the connection can be reused and caches see the full body
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
