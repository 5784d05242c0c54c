package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

// Stats summarises one import run.
type Stats struct {
	Total    int
	Uploaded int
	Skipped  int
	Pruned   int
	Failed   int
	Errors   []string
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
}

// ContentTypeOf maps a file name to its upload content type.
func ContentTypeOf(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Importer pushes a local media tree into the object store. The first path
// segment of every file is its category, matching the key layout the listing
// manifest is generated from.
type Importer struct {
	strg   port.Storage
	bucket string
}

func NewImporter(strg port.Storage, bucket string) *Importer {
	return &Importer{strg: strg, bucket: bucket}
}

// Run uploads every file under a category directory of src, skipping objects
// already present remotely so reruns only transfer what is missing. With
// prune set, remote objects without a local counterpart are removed
// afterwards. Individual failures are recorded and never abort the run.
func (im *Importer) Run(ctx context.Context, src fs.FS, prune bool) Stats {
	var stats Stats
	local := make(map[string]bool)

	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !strings.Contains(p, "/") {
			// root-level files belong to no category; the listing never
			// references them
			return nil
		}

		stats.Total++
		local[p] = true

		exists, err := im.strg.FileExists(ctx, im.bucket, p)
		if err != nil {
			stats.fail(p, fmt.Errorf("checking remote copy: %w", err))
			return nil
		}
		if exists {
			log.Printf("⏭️  %q already uploaded, skipping", p)
			stats.Skipped++
			return nil
		}

		if err := im.upload(ctx, src, p); err != nil {
			stats.fail(p, err)
			return nil
		}
		stats.Uploaded++
		return nil
	})
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("walking source tree: %v", err))
	}

	if prune {
		im.prune(ctx, local, &stats)
	}
	return stats
}

func (im *Importer) upload(ctx context.Context, src fs.FS, p string) error {
	f, err := src.Open(p)
	if err != nil {
		return fmt.Errorf("opening: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close %q: %v", p, err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stating: %w", err)
	}

	opts := map[string]string{"Content-Type": ContentTypeOf(p)}
	if err := im.strg.SaveFile(ctx, im.bucket, p, f, info.Size(), opts); err != nil {
		return fmt.Errorf("uploading: %w", err)
	}
	return nil
}

// prune removes remote objects absent from the local tree.
func (im *Importer) prune(ctx context.Context, local map[string]bool, stats *Stats) {
	remote, err := im.strg.ListFiles(ctx, im.bucket, "")
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("listing remote objects: %v", err))
		return
	}

	for _, info := range remote {
		if local[info.Key] {
			continue
		}
		if err := im.strg.RemoveFile(ctx, im.bucket, info.Key); err != nil {
			stats.fail(info.Key, fmt.Errorf("pruning: %w", err))
			continue
		}
		log.Printf("🗑️  Pruned remote orphan %q", info.Key)
		stats.Pruned++
	}
}

func (s *Stats) fail(key string, err error) {
	log.Printf("❌  %s: %v", key, err)
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", key, err))
}
