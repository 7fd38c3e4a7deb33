package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/cellhub/admin/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// UploadsPrefix is the public path of uploaded images and documents.
const UploadsPrefix = "/uploads/"

// FilesRouter serves uploaded files. It is public, like the image URLs
// embedded in events and cellules.
func FilesRouter(r chi.Router, files *storage.Storage) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
		if name == "" {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		data, err := files.GetBytes(r.Context(), name)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				writeError(w, http.StatusNotFound, "file not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to read file")
			return
		}
		writeFile(w, path.Base(name), data)
	})
}
