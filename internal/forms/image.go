package forms

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cellhub/admin/config"
	"github.com/pkg/errors"
)

// Limits are the upload size caps, in bytes.
type Limits struct {
	CreateImageMax  int64
	EditImageMax    int64
	CelluleImageMax int64
}

// DefaultLimits match the dashboard's historical values.
var DefaultLimits = Limits{
	CreateImageMax:  10 << 20,
	EditImageMax:    5 << 20,
	CelluleImageMax: 5 << 20,
}

// LimitsFromConfig reads the caps from configuration, keeping defaults
// for unset values.
func LimitsFromConfig(cfg config.LimitsConfig) Limits {
	limits := DefaultLimits
	if cfg.CreateImageMax > 0 {
		limits.CreateImageMax = cfg.CreateImageMax
	}
	if cfg.EditImageMax > 0 {
		limits.EditImageMax = cfg.EditImageMax
	}
	if cfg.CelluleImageMax > 0 {
		limits.CelluleImageMax = cfg.CelluleImageMax
	}
	return limits
}

// File is an uploaded file held in memory. Data is what gets sent;
// it is never replaced by the preview.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURL renders the file as a data: URL for previews.
func (f *File) DataURL() string {
	if f == nil {
		return ""
	}
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

var (
	errNotImage = errors.New("please select a valid image")
	errTooLarge = errors.New("file too large")
)

// readImage reads an image upload, enforcing the MIME family and size.
func readImage(name string, r io.Reader, limit int64) (*File, error) {
	file, err := readFile(name, r, limit)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return nil, errNotImage
	}
	return file, nil
}

// readFile reads at most limit bytes and sniffs the content type,
// falling back to the file extension.
func readFile(name string, r io.Reader, limit int64) (*File, error) {
	if r == nil {
		return nil, errors.New("no file selected")
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(errTooLarge, "must not exceed %s", formatBytes(limit))
	}
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}

	ext := strings.ToLower(filepath.Ext(name))
	contentType := http.DetectContentType(data)
	sniffedXML := strings.HasPrefix(contentType, "text/xml") || strings.HasPrefix(contentType, "text/plain")
	if contentType == "application/octet-stream" || (ext == ".svg" && sniffedXML) {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		}
	}
	if i := strings.Index(contentType, ";"); i >= 0 && !strings.HasPrefix(contentType, "text/") {
		contentType = contentType[:i]
	}
	return &File{Name: filepath.Base(name), ContentType: contentType, Data: data}, nil
}

func formatBytes(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%dKB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
