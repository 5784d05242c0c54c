package ingest

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/xaco47/wedding-archive-go/internal/mock"
)

func localTree() fstest.MapFS {
	return fstest.MapFS{
		"dugun/IMG_01.jpeg": &fstest.MapFile{Data: []byte("photo-1")},
		"dugun/clip.mp4":    &fstest.MapFile{Data: []byte("video-1")},
		"nisan/IMG_02.heic": &fstest.MapFile{Data: []byte("photo-2")},
		"README.md":         &fstest.MapFile{Data: []byte("notes")},
	}
}

func TestRun_UploadsNewFiles(t *testing.T) {
	strg := mock.NewStorage()
	im := NewImporter(strg, "medias")

	stats := im.Run(context.Background(), localTree(), false)

	if stats.Total != 3 || stats.Uploaded != 3 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Fatalf("stats = %+v; want 3 total, 3 uploaded", stats)
	}
	if len(strg.SavedKeys) != 3 {
		t.Fatalf("saved keys = %v; want 3", strg.SavedKeys)
	}
	if string(strg.Files["medias"]["dugun/IMG_01.jpeg"]) != "photo-1" {
		t.Error("uploaded bytes differ from the local file")
	}
	if _, ok := strg.Files["medias"]["README.md"]; ok {
		t.Error("root-level file without a category was uploaded")
	}
	if ct := strg.ContentTypes["dugun/clip.mp4"]; ct != "video/mp4" {
		t.Errorf("content type = %q; want video/mp4", ct)
	}
	if ct := strg.ContentTypes["nisan/IMG_02.heic"]; ct != "image/heic" {
		t.Errorf("content type = %q; want image/heic", ct)
	}
}

func TestRun_SkipsAlreadyUploaded(t *testing.T) {
	strg := mock.NewStorage()
	strg.Put("medias", "dugun/IMG_01.jpeg", []byte("remote-copy"), "image/jpeg")
	im := NewImporter(strg, "medias")

	stats := im.Run(context.Background(), localTree(), false)

	if stats.Skipped != 1 || stats.Uploaded != 2 {
		t.Fatalf("stats = %+v; want 1 skipped, 2 uploaded", stats)
	}
	// the remote copy is authoritative, reruns never overwrite it
	if string(strg.Files["medias"]["dugun/IMG_01.jpeg"]) != "remote-copy" {
		t.Error("existing remote object was overwritten")
	}
}

func TestRun_PruneRemovesRemoteOrphans(t *testing.T) {
	strg := mock.NewStorage()
	strg.Put("medias", "dugun/deleted-locally.jpeg", []byte("old"), "image/jpeg")
	im := NewImporter(strg, "medias")

	stats := im.Run(context.Background(), localTree(), true)

	if stats.Pruned != 1 {
		t.Fatalf("stats = %+v; want 1 pruned", stats)
	}
	if _, ok := strg.Files["medias"]["dugun/deleted-locally.jpeg"]; ok {
		t.Error("remote orphan survived the prune")
	}
	if _, ok := strg.Files["medias"]["dugun/IMG_01.jpeg"]; !ok {
		t.Error("freshly uploaded object was pruned")
	}
}

func TestRun_WithoutPruneKeepsOrphans(t *testing.T) {
	strg := mock.NewStorage()
	strg.Put("medias", "dugun/deleted-locally.jpeg", []byte("old"), "image/jpeg")
	im := NewImporter(strg, "medias")

	stats := im.Run(context.Background(), localTree(), false)

	if stats.Pruned != 0 {
		t.Fatalf("stats = %+v; want nothing pruned", stats)
	}
	if _, ok := strg.Files["medias"]["dugun/deleted-locally.jpeg"]; !ok {
		t.Error("remote object removed without prune")
	}
}

func TestRun_ListFailureIsRecordedNotFatal(t *testing.T) {
	strg := mock.NewStorage()
	strg.ListErr = errors.New("storage down")
	im := NewImporter(strg, "medias")

	stats := im.Run(context.Background(), localTree(), true)

	if stats.Uploaded != 3 {
		t.Fatalf("stats = %+v; uploads must complete before the failed prune", stats)
	}
	if len(stats.Errors) == 0 {
		t.Error("prune failure left no trace in the stats")
	}
}

func TestContentTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"IMG_01.jpeg", "image/jpeg"},
		{"IMG_01.JPG", "image/jpeg"},
		{"IMG_02.HEIC", "image/heic"},
		{"clip.mov", "video/quicktime"},
		{"notes.txt", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentTypeOf(tt.name); got != tt.want {
			t.Errorf("ContentTypeOf(%q) = %q; want %q", tt.name, got, tt.want)
		}
	}
}
