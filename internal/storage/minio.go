package storage

import (
	"context"
	"io"
	"strings"

	"github.com/cellhub/admin/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioClient keeps archived document bundles in a MinIO or S3 bucket.
type MinioClient struct {
	client *minio.Client
	bucket string
}

// NewMinioClient checks the archive credentials before dialing.
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	var missing []string
	for name, value := range map[string]string{
		"MINIO_ENDPOINT":   cfg.Endpoint,
		"MINIO_ACCESS_KEY": cfg.AccessKey,
		"MINIO_SECRET_KEY": cfg.SecretKey,
		"MINIO_BUCKET":     cfg.Bucket,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("minio archive is not configured: missing %s", strings.Join(sortedCopy(missing), ", "))
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}
	return &MinioClient{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return errors.Wrapf(err, "check archive bucket %s", m.bucket)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrapf(err, "create archive bucket %s", m.bucket)
	}
	return nil
}

// Put uploads a bundle with its download name and source tag.
func (m *MinioClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	meta := metaFor(key, contentType)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:        meta.ContentType,
		ContentDisposition: meta.ContentDisposition,
		UserMetadata:       meta.Metadata,
	})
	return errors.Wrapf(err, "upload %s", key)
}

// Get opens key. A missing key is reported as ErrObjectNotFound.
func (m *MinioClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrapf(err, "stat %s", key)
	}
	return m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
}

func (m *MinioClient) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}), "remove %s", key)
}

func (m *MinioClient) Bucket() string {
	return m.bucket
}
