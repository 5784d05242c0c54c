package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"hash/crc32"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/config"
	"github.com/xaco47/wedding-archive-go/internal/listing"
	"github.com/xaco47/wedding-archive-go/internal/port"
	"github.com/xaco47/wedding-archive-go/internal/storage"
)

// One-shot generator: walks the media bucket and emits the listing manifest
// the gateway serves from. Run it after every bulk upload.
func main() {
	out := flag.String("o", "", "write the manifest to this file instead of stdout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌  Configuration error: %v", err)
	}

	strg := initStorage(cfg)

	manifest, err := buildManifest(context.Background(), strg, cfg)
	if err != nil {
		log.Fatalf("❌  Manifest generation failed: %v", err)
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		log.Fatalf("❌  Failed to encode manifest: %v", err)
	}

	if *out == "" {
		os.Stdout.Write(append(raw, '\n'))
	} else if err := os.WriteFile(*out, raw, 0o644); err != nil {
		log.Fatalf("❌  Failed to write %q: %v", *out, err)
	}
	log.Printf("✅  Manifest generated: %d categories", len(manifest.Categories))
}

func initStorage(cfg *config.Settings) port.Storage {
	log.Println("initialising storage...")
	strg, err := storage.NewStorage(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("❌  Failed to initialize MinIO client: %v", err)
	}
	return strg
}

// buildManifest groups every object by its top-level key prefix; one prefix
// becomes one category. Objects at the bucket root are skipped.
func buildManifest(ctx context.Context, strg port.Storage, cfg *config.Settings) (listing.Manifest, error) {
	files, err := strg.ListFiles(ctx, cfg.MediaBucket, "")
	if err != nil {
		return listing.Manifest{}, err
	}

	byCategory := make(map[string][]listing.FileRecord)
	for _, f := range files {
		categoryID, name, ok := strings.Cut(f.Key, "/")
		if !ok || name == "" {
			continue
		}
		byCategory[categoryID] = append(byCategory[categoryID], listing.FileRecord{
			// a checksum of the key survives provider reshuffling, which a
			// raw remote file id would not
			ID:         fmt.Sprintf("%s-%08x", categoryID, crc32.ChecksumIEEE([]byte(f.Key))),
			Name:       name,
			Key:        f.Key,
			URL:        cfg.PublicBaseURL + "/" + f.Key,
			Size:       f.SizeBytes,
			UploadedAt: f.LastModified,
		}.Normalize())
	}

	manifest := listing.Manifest{GeneratedAt: time.Now().UTC()}
	for id, recs := range byCategory {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Key < recs[j].Key })
		manifest.Categories = append(manifest.Categories, listing.Category{
			CategoryID: id,
			Files:      recs,
		})
	}
	sort.Slice(manifest.Categories, func(i, j int) bool {
		return manifest.Categories[i].CategoryID < manifest.Categories[j].CategoryID
	})
	return manifest, nil
}
