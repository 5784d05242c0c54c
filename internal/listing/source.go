package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/validation"
)

// Source is one candidate provider of a category listing. Fetch reports
// uniformly: either a well-formed listing (ok) or a miss. There is no error
// taxonomy on purpose; a malformed payload and an unreachable host are the
// same thing to a caller that just wants the next candidate tried.
type Source interface {
	Fetch(ctx context.Context, categoryID string) ([]FileRecord, bool)
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// ManifestSource probes a fixed list of manifest URLs in order and serves the
// requested category out of the first document that parses. A manifest that
// parses but has no such category is a valid "no media yet" answer, not a
// miss.
type ManifestSource struct {
	URLs   []string
	Client *http.Client
}

var _ Source = (*ManifestSource)(nil)

func (s *ManifestSource) Fetch(ctx context.Context, categoryID string) ([]FileRecord, bool) {
	client := httpClientOrDefault(s.Client)

	for _, u := range s.URLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		m, err := decodeManifest(resp)
		if err != nil {
			log.Printf("manifest at %q unusable: %v", u, err)
			continue
		}

		for _, cat := range m.Categories {
			if cat.CategoryID == categoryID {
				return normalizeAll(cat.Files), true
			}
		}
		// well-formed document, category simply absent
		return []FileRecord{}, true
	}

	return nil, false
}

func decodeManifest(resp *http.Response) (*Manifest, error) {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := validation.ValidateStruct(&m); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &m, nil
}

// APISource asks the live listing endpoint for a single category. It is the
// lower-priority fallback behind the static manifest.
type APISource struct {
	BaseURL string
	Client  *http.Client
}

var _ Source = (*APISource)(nil)

func (s *APISource) Fetch(ctx context.Context, categoryID string) ([]FileRecord, bool) {
	client := httpClientOrDefault(s.Client)

	u := strings.TrimRight(s.BaseURL, "/") + "/api/categories/" + categoryID + "/files"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var cat Category
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		log.Printf("listing API payload for %q unusable: %v", categoryID, err)
		return nil, false
	}
	if cat.Files == nil {
		cat.Files = []FileRecord{}
	}
	return normalizeAll(cat.Files), true
}
