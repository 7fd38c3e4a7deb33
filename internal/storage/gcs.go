package storage

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cellhub/admin/config"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// singleRequestLimit is the largest bundle sent in one upload request;
// bigger ones use resumable chunks.
const singleRequestLimit = 16 << 20

// GCSClient keeps archived document bundles in a Google Cloud Storage
// bucket.
type GCSClient struct {
	client    *storage.Client
	bucket    string
	projectID string
}

func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs archive is not configured: missing GCS_BUCKET")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "gcs client")
	}
	return &GCSClient{client: client, bucket: cfg.Bucket, projectID: cfg.ProjectID}, nil
}

// EnsureBucket creates the archive bucket when it is missing. Creating
// needs GCS_PROJECT_ID.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return errors.Wrapf(err, "check archive bucket %s", g.bucket)
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.Errorf("archive bucket %s does not exist and GCS_PROJECT_ID is not set", g.bucket)
	}
	return errors.Wrapf(g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil), "create archive bucket %s", g.bucket)
}

// Put uploads a bundle with its download name and source tag.
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	meta := metaFor(key, contentType)
	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = meta.ContentType
	writer.ContentDisposition = meta.ContentDisposition
	writer.Metadata = meta.Metadata
	if size >= 0 && size <= singleRequestLimit {
		writer.ChunkSize = 0
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return errors.Wrapf(err, "upload %s", key)
	}
	return errors.Wrapf(writer.Close(), "upload %s", key)
}

// Get opens key. A missing key is reported as ErrObjectNotFound.
func (g *GCSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", key)
	}
	return rc, nil
}

func (g *GCSClient) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(g.client.Bucket(g.bucket).Object(key).Delete(ctx), "remove %s", key)
}

func (g *GCSClient) Bucket() string {
	return g.bucket
}
