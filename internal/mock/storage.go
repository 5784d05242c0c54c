package mock

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/port"
	"github.com/xaco47/wedding-archive-go/internal/storage"
)

// Storage implements an in-memory object store for tests.
type Storage struct {
	mu sync.Mutex

	// Files maps bucket → key → contents.
	Files map[string]map[string][]byte
	// ContentTypes maps key → content type (optional).
	ContentTypes map[string]string

	// errors
	GetErr  error
	StatErr error
	ListErr error

	// call recording
	GotKeys   []string
	SavedKeys []string
}

var _ port.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		Files:        make(map[string]map[string][]byte),
		ContentTypes: make(map[string]string),
	}
}

// Put seeds an object.
func (s *Storage) Put(bucket, key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files[bucket] == nil {
		s.Files[bucket] = make(map[string][]byte)
	}
	s.Files[bucket][key] = data
	s.ContentTypes[key] = contentType
}

func (s *Storage) InitBucket(bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files[bucket] == nil {
		s.Files[bucket] = make(map[string][]byte)
	}
	return nil
}

func (s *Storage) FileExists(ctx context.Context, bucket, fileKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Files[bucket][fileKey]
	return ok, nil
}

func (s *Storage) StatFile(ctx context.Context, bucket, fileKey string) (port.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StatErr != nil {
		return port.FileInfo{}, s.StatErr
	}
	data, ok := s.Files[bucket][fileKey]
	if !ok {
		return port.FileInfo{}, storage.ErrObjectNotFound
	}
	return port.FileInfo{
		Key:         fileKey,
		SizeBytes:   int64(len(data)),
		ContentType: s.ContentTypes[fileKey],
	}, nil
}

type readSeekCloser struct{ *bytes.Reader }

func (readSeekCloser) Close() error { return nil }

func (s *Storage) GetFile(ctx context.Context, bucket, fileKey string) (io.ReadSeekCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GotKeys = append(s.GotKeys, fileKey)
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	data, ok := s.Files[bucket][fileKey]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return readSeekCloser{bytes.NewReader(data)}, nil
}

func (s *Storage) SaveFile(ctx context.Context, bucket, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files[bucket] == nil {
		s.Files[bucket] = make(map[string][]byte)
	}
	s.Files[bucket][fileKey] = data
	if ct := opts["Content-Type"]; ct != "" {
		s.ContentTypes[fileKey] = ct
	}
	s.SavedKeys = append(s.SavedKeys, fileKey)
	return nil
}

func (s *Storage) RemoveFile(ctx context.Context, bucket, fileKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files[bucket], fileKey)
	return nil
}

func (s *Storage) ListFiles(ctx context.Context, bucket, prefix string) ([]port.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []port.FileInfo
	for key, data := range s.Files[bucket] {
		if len(prefix) > 0 && (len(key) < len(prefix) || key[:len(prefix)] != prefix) {
			continue
		}
		out = append(out, port.FileInfo{
			Key:          key,
			SizeBytes:    int64(len(data)),
			ContentType:  s.ContentTypes[key],
			LastModified: time.Unix(0, 0),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
