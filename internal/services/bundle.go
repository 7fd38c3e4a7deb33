package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cellhub/admin/internal/storage"
	"github.com/cellhub/admin/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	manifestName   = "manifest.json"
	bundleDocsDir  = "documents/"
	bundleMimeType = "application/gzip"
)

// DocumentSource is the document store side of the bundler.
type DocumentSource interface {
	FetchAll(ctx context.Context) error
	Items() []types.Document
	Download(ctx context.Context, id int) (*types.Blob, error)
}

// ManifestEntry describes one file of a bundle.
type ManifestEntry struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	EventID     int    `json:"event_id,omitempty"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	SHA256      string `json:"sha256"`
}

// Manifest lists the files of a bundle.
type Manifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Documents   []ManifestEntry `json:"documents"`
}

// Bundle is a .tar.gz export of every document.
type Bundle struct {
	Filename string
	Data     []byte
	// SHA256 is the hex digest of Data.
	SHA256   string
	Manifest Manifest
}

// DocumentBundle exports documents as one archive and stores archives
// in object storage.
type DocumentBundle struct {
	docs    DocumentSource
	archive *storage.Storage
	now     func() time.Time
}

func NewDocumentBundle(docs DocumentSource, archive *storage.Storage, now func() time.Time) *DocumentBundle {
	if now == nil {
		now = time.Now
	}
	return &DocumentBundle{docs: docs, archive: archive, now: now}
}

// Build reloads the document list, downloads every document and packs
// them with a manifest.
func (b *DocumentBundle) Build(ctx context.Context) (Bundle, error) {
	if err := b.docs.FetchAll(ctx); err != nil {
		return Bundle{}, errors.Wrap(err, "list documents")
	}
	docs := b.docs.Items()
	if len(docs) == 0 {
		return Bundle{}, errors.New("there are no documents to export")
	}

	now := b.now().UTC()
	manifest := Manifest{GeneratedAt: now}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, doc := range docs {
		blob, err := b.docs.Download(ctx, doc.ID)
		if err != nil {
			return Bundle{}, errors.Wrapf(err, "download document %d", doc.ID)
		}
		sum := sha256.Sum256(blob.Data)
		entry := ManifestEntry{
			ID:          doc.ID,
			Title:       doc.Title,
			EventID:     doc.EventID,
			Path:        bundleDocsDir + entryName(doc, blob),
			ContentType: blob.ContentType,
			Size:        len(blob.Data),
			SHA256:      hex.EncodeToString(sum[:]),
		}
		if err := writeEntry(tw, entry.Path, blob.Data, now); err != nil {
			return Bundle{}, err
		}
		manifest.Documents = append(manifest.Documents, entry)
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Bundle{}, errors.Wrap(err, "encode manifest")
	}
	if err := writeEntry(tw, manifestName, raw, now); err != nil {
		return Bundle{}, err
	}
	if err := tw.Close(); err != nil {
		return Bundle{}, errors.Wrap(err, "close tar")
	}
	if err := gz.Close(); err != nil {
		return Bundle{}, errors.Wrap(err, "close gzip")
	}

	sum := sha256.Sum256(buf.Bytes())
	return Bundle{
		Filename: fmt.Sprintf("documents-%s.tar.gz", now.Format("20060102-150405")),
		Data:     buf.Bytes(),
		SHA256:   hex.EncodeToString(sum[:]),
		Manifest: manifest,
	}, nil
}

// Archive builds a bundle and uploads it. It returns the object key.
func (b *DocumentBundle) Archive(ctx context.Context) (string, Bundle, error) {
	if b.archive == nil {
		return "", Bundle{}, errors.New("no archive storage configured")
	}
	bundle, err := b.Build(ctx)
	if err != nil {
		return "", Bundle{}, err
	}
	if err := b.archive.EnsureBucket(ctx); err != nil {
		return "", Bundle{}, errors.Wrap(err, "prepare archive bucket")
	}
	name := path.Join(bundle.Manifest.GeneratedAt.Format("2006/01/02"), uuid.NewString()+".tar.gz")
	key, err := b.archive.PutBytes(ctx, name, bundle.Data, bundleMimeType)
	if err != nil {
		return "", Bundle{}, err
	}
	return key, bundle, nil
}

// ReadBundle unpacks a bundle and checks every file against the
// manifest. It returns the manifest and the files by path.
func ReadBundle(data []byte) (Manifest, map[string][]byte, error) {
	if len(data) == 0 {
		return Manifest{}, nil, errors.New("empty bundle data")
	}
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return Manifest{}, nil, errors.New("invalid tar.gz bundle")
	}
	defer gr.Close()

	files := map[string][]byte{}
	var manifestRaw []byte
	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Manifest{}, nil, errors.New("invalid tar.gz bundle")
		}
		if !header.FileInfo().Mode().IsRegular() {
			return Manifest{}, nil, errors.New("bundle contains unsupported entries")
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return Manifest{}, nil, errors.Wrapf(err, "read %s", header.Name)
		}
		if header.Name == manifestName {
			manifestRaw = body
			continue
		}
		files[header.Name] = body
	}
	if manifestRaw == nil {
		return Manifest{}, nil, errors.New("bundle has no manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return Manifest{}, nil, errors.Wrap(err, "decode manifest")
	}
	for _, entry := range manifest.Documents {
		body, ok := files[entry.Path]
		if !ok {
			return Manifest{}, nil, errors.Errorf("bundle is missing %s", entry.Path)
		}
		sum := sha256.Sum256(body)
		if hex.EncodeToString(sum[:]) != entry.SHA256 {
			return Manifest{}, nil, errors.Errorf("checksum mismatch for %s", entry.Path)
		}
	}
	return manifest, files, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	if _, err := tw.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return nil
}

// entryName prefixes the document id so that equal filenames do not
// collide, and strips any directory part.
func entryName(doc types.Document, blob *types.Blob) string {
	name := blob.Filename
	if name == "" {
		name = doc.Filename
	}
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(path.Clean("/" + name))
	if name == "/" || name == "." {
		name = "document"
	}
	return fmt.Sprintf("%d-%s", doc.ID, name)
}
