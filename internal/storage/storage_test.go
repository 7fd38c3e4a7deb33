package storage

import (
	"context"
	"testing"

	"github.com/cellhub/admin/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoragePrefixesKeys(t *testing.T) {
	mem := NewMemory("bundles")
	s := NewStorage(mem, "/document-bundles/")
	ctx := context.Background()

	key, err := s.PutBytes(ctx, "2026/export.tar.gz", []byte("payload"), "application/gzip")
	require.NoError(t, err)
	assert.Equal(t, "document-bundles/2026/export.tar.gz", key)

	ct, ok := mem.ContentType(key)
	require.True(t, ok)
	assert.Equal(t, "application/gzip", ct)

	data, err := s.GetBytes(ctx, "2026/export.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, s.Delete(ctx, "2026/export.tar.gz"))
	assert.Zero(t, mem.Len())
}

func TestStorageKeyCannotEscapePrefix(t *testing.T) {
	s := NewStorage(NewMemory("b"), "docs")
	assert.Equal(t, "docs/etc/passwd", s.Key("../../etc/passwd"))
	assert.Equal(t, "docs/a/b", s.Key("a//b"))
}

func TestGetMissingObject(t *testing.T) {
	s := NewStorage(NewMemory("b"), "")
	_, err := s.GetBytes(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(context.Background(), config.ArchiveConfig{Backend: "memory", Prefix: "x"})
	require.NoError(t, err)
	assert.Equal(t, "archive", s.Bucket())

	_, err = FromConfig(context.Background(), config.ArchiveConfig{Backend: "ftp"})
	assert.Error(t, err)

	_, err = FromConfig(context.Background(), config.ArchiveConfig{Backend: "minio"})
	assert.Error(t, err)
}

func TestMetaForArchivedBundle(t *testing.T) {
	meta := metaFor("bundles/2026/04/15/abc.tar.gz", "application/gzip")
	assert.Equal(t, "application/gzip", meta.ContentType)
	assert.Equal(t, "attachment; filename=abc.tar.gz", meta.ContentDisposition)
	assert.Equal(t, "cellhub", meta.Metadata["source"])
}

func TestMinioRequiresArchiveSettings(t *testing.T) {
	_, err := NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000", Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
}
