package storage

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/cellhub/admin/config"
	"github.com/pkg/errors"
)

// ErrObjectNotFound is returned by backends that can tell a missing
// object apart from other failures.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage is an object store bucket.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage stores byte payloads under a key prefix.
type Storage struct {
	backend ObjectStorage
	prefix  string
}

// NewStorage wraps backend. Keys are stored under prefix.
func NewStorage(backend ObjectStorage, prefix string) *Storage {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Storage{backend: backend, prefix: prefix}
}

// FromConfig opens the configured archive backend: minio, gcs or
// memory.
func FromConfig(ctx context.Context, cfg config.ArchiveConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	case "memory":
		backend = NewMemory("archive")
	default:
		return nil, errors.Errorf("unknown archive backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s archive", cfg.Backend)
	}
	return NewStorage(backend, cfg.Prefix), nil
}

// Key returns the full object key for name.
func (s *Storage) Key(name string) string {
	return s.prefix + path.Clean("/" + name)[1:]
}

// EnsureBucket creates the bucket if needed.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// PutBytes stores data under name and returns the full key.
func (s *Storage) PutBytes(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.Key(name)
	if err := s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", errors.Wrapf(err, "put %s", key)
	}
	return key, nil
}

// GetBytes reads the object stored under name.
func (s *Storage) GetBytes(ctx context.Context, name string) ([]byte, error) {
	key := s.Key(name)
	rc, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", key)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

// Delete removes the object stored under name.
func (s *Storage) Delete(ctx context.Context, name string) error {
	return s.backend.Delete(ctx, s.Key(name))
}

// Bucket returns the bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
