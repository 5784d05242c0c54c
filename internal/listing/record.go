package listing

import (
	"time"

	"github.com/xaco47/wedding-archive-go/internal/imgurl"
)

// FileRecord is one entry of the externally produced listing manifest.
type FileRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required"`
	Key          string    `json:"key" validate:"required"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Size         int64     `json:"size,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt,omitempty"`
}

// Category groups the files of one archive category.
type Category struct {
	CategoryID string       `json:"categoryId" validate:"required"`
	Files      []FileRecord `json:"files"`
}

// Manifest is the out-of-band generated listing document. The pipeline only
// ever reads it.
type Manifest struct {
	Categories  []Category `json:"categories" validate:"required"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// Normalize rewrites legacy HEIC suffixes across the record so downstream URL
// construction always targets a browser-renderable format.
func (r FileRecord) Normalize() FileRecord {
	r.Key = imgurl.NormalizeKey(r.Key)
	r.Name = imgurl.NormalizeKey(r.Name)
	r.URL = imgurl.NormalizeKey(r.URL)
	r.ThumbnailURL = imgurl.NormalizeKey(r.ThumbnailURL)
	return r
}

func normalizeAll(recs []FileRecord) []FileRecord {
	out := make([]FileRecord, len(recs))
	for i, r := range recs {
		out[i] = r.Normalize()
	}
	return out
}
