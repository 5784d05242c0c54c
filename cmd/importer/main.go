package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/xaco47/wedding-archive-go/internal/config"
	"github.com/xaco47/wedding-archive-go/internal/ingest"
	"github.com/xaco47/wedding-archive-go/internal/storage"
)

// One-shot bulk importer: pushes a local media tree (one directory per
// category) into the media bucket. Reruns are cheap, existing objects are
// skipped. Follow up with cmd/manifest to regenerate the listing.
func main() {
	dir := flag.String("dir", ".", "local media tree to import")
	prune := flag.Bool("prune", false, "remove remote objects missing from the local tree")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌  Configuration error: %v", err)
	}

	strg, err := storage.NewStorage(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("❌  Failed to initialize MinIO client: %v", err)
	}
	if err := strg.InitBucket(cfg.MediaBucket); err != nil {
		log.Fatalf("❌  Failed to initialize bucket %q: %v", cfg.MediaBucket, err)
	}

	log.Printf("🚀 Importing %q into bucket %q", *dir, cfg.MediaBucket)
	stats := ingest.NewImporter(strg, cfg.MediaBucket).Run(context.Background(), os.DirFS(*dir), *prune)

	log.Printf("📊 Import summary: %d total, %d uploaded, %d skipped, %d pruned, %d failed",
		stats.Total, stats.Uploaded, stats.Skipped, stats.Pruned, stats.Failed)
	for _, e := range stats.Errors {
		log.Printf("   - %s", e)
	}
	if stats.Failed > 0 {
		os.Exit(1)
	}
	log.Println("✅  Import complete")
}
