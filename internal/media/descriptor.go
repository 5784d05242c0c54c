package media

import (
	"fmt"
	"hash/crc32"
	"path"
	"strings"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/listing"
)

type Type string

const (
	TypePhoto Type = "photo"
	TypeVideo Type = "video"
)

// Thumbnails holds the four named tiers of one asset. Tiers grow strictly in
// width×quality; on a host that cannot resize they all alias the same bytes
// and the ladder degrades gracefully.
type Thumbnails struct {
	Placeholder string `json:"placeholder"`
	Small       string `json:"small"`
	Medium      string `json:"medium"`
	Large       string `json:"large"`
}

// Descriptor represents one photo or video of the archive. Descriptors are
// assembled fresh from listing records on every pass and never persisted.
type Descriptor struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	MediaType   Type       `json:"media_type"`
	CreatedAt   time.Time  `json:"created_at"`
	SourceKind  string     `json:"source_kind"`
	Thumbnails  Thumbnails `json:"thumbnails"`
	OriginalURL string     `json:"original_url"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Featured    bool       `json:"featured"`
	CategoryID  string     `json:"category_id"`
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
}

// TypeOf classifies a file name by extension.
func TypeOf(name string) Type {
	if videoExts[strings.ToLower(path.Ext(name))] {
		return TypeVideo
	}
	return TypePhoto
}

// descriptorID derives a stable id from the category and object key. A
// checksum of the key survives provider reshuffling, which a raw remote file
// id would not.
func descriptorID(categoryID, key string) string {
	return fmt.Sprintf("%s-%08x", categoryID, crc32.ChecksumIEEE([]byte(key)))
}

// FromRecord assembles one descriptor from a listing record. createdAt is
// the fallback for records without an upload timestamp.
func FromRecord(categoryID string, rec listing.FileRecord, res *imgurl.Resolver, createdAt time.Time) Descriptor {
	title := strings.TrimSuffix(rec.Name, path.Ext(rec.Name))
	if !rec.UploadedAt.IsZero() {
		createdAt = rec.UploadedAt
	}

	return Descriptor{
		ID:         descriptorID(categoryID, rec.Key),
		Title:      title,
		MediaType:  TypeOf(rec.Name),
		CreatedAt:  createdAt,
		SourceKind: "r2",
		Thumbnails: Thumbnails{
			Placeholder: res.Resolve(rec.Key, imgurl.Placeholder),
			Small:       res.Resolve(rec.Key, imgurl.Thumb),
			Medium:      res.Resolve(rec.Key, imgurl.Medium),
			Large:       res.Resolve(rec.Key, imgurl.Preview),
		},
		OriginalURL: res.ResolveOriginal(rec.Key),
		// width/height stay zero: real dimensions are not introspected and
		// consumers fall back to a fixed ratio
		CategoryID: categoryID,
	}
}

// FromRecords assembles descriptors for a whole category, preserving order.
func FromRecords(categoryID string, recs []listing.FileRecord, res *imgurl.Resolver, createdAt time.Time) []Descriptor {
	out := make([]Descriptor, len(recs))
	for i, rec := range recs {
		out[i] = FromRecord(categoryID, rec, res, createdAt)
	}
	return out
}
