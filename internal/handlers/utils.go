package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/storage"
	"github.com/cellhub/admin/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 20 << 20
	maxJSONBytes       = 1 << 20
)

type contextKey string

const contextSubjectKey contextKey = "sub"

func userIDFromContext(ctx context.Context) (int, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok {
		return 0, errors.New("missing subject")
	}
	id, err := strconv.Atoi(strings.TrimSpace(subject))
	if err != nil || id < 1 {
		return 0, errors.New("invalid subject")
	}
	return id, nil
}

// ErrorResponse is the error payload. The client shows Message.
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse acknowledges an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeStoreError maps repository errors to responses.
func writeStoreError(w http.ResponseWriter, log logger.Logger, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, what+" already exists")
	default:
		log.Error("store failure", what, err)
		writeError(w, http.StatusInternalServerError, "failed to process "+what)
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	if err := dec.Decode(out); err != nil {
		return errors.New("invalid request")
	}
	return nil
}

func parseID(r *http.Request, param string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id < 1 {
		return 0, errors.Errorf("invalid %s", param)
	}
	return id, nil
}

func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return errors.New("invalid multipart form")
	}
	return nil
}

// formValue returns a trimmed form value and whether the field was sent.
func formValue(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

// Upload is a file received in a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// formFile reads the single file of a field. A missing field gives a
// nil Upload and no error.
func formFile(form *multipart.Form, field string) (*Upload, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.Errorf("only one %s file is allowed", field)
	}
	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", field)
	}
	data, err := readFileLimited(file, maxUploadBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &Upload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

// saveUpload stores an upload under dir and returns its public URL path.
func saveUpload(ctx context.Context, files *storage.Storage, dir string, up *Upload) (string, error) {
	name := dir + "/" + sanitizeFilename(up.Filename)
	key, err := files.PutBytes(ctx, name, up.Data, up.ContentType)
	if err != nil {
		return "", err
	}
	return UploadsPrefix + strings.TrimPrefix(key, files.Key("")), nil
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// Healthz reports that the server is up.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
