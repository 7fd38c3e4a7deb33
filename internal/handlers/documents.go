package handlers

import (
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/cellhub/admin/types"
	"github.com/go-chi/chi/v5"
)

// DocumentFileField is the multipart field of an uploaded document.
const DocumentFileField = "uploaded_document"

// DocumentHandler serves /API/documents.
type DocumentHandler struct {
	Deps
}

func DocumentRouter(r chi.Router, deps Deps) {
	h := &DocumentHandler{deps.withDefaults()}

	r.Get("/", h.List)
	r.Post("/", h.Upload)
	r.Get("/{id}", h.Download)
	r.Delete("/{id}", h.Delete)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.Documents.List(r.Context())
	if err != nil {
		writeStoreError(w, h.Log, err, "documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// Upload stores the file and answers with the document itself.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	title, _ := formValue(r, "title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	var eventID int
	if raw, ok := formValue(r, "event_id"); ok && raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "invalid event_id")
			return
		}
		if _, err := h.Store.Events.Get(r.Context(), id); err != nil {
			writeStoreError(w, h.Log, err, "event")
			return
		}
		eventID = id
	}
	file, err := formFile(r.MultipartForm, DocumentFileField)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if file == nil {
		writeError(w, http.StatusBadRequest, "a file is required")
		return
	}

	doc, err := h.Store.Documents.Create(r.Context(), types.Document{
		Title:      title,
		Filename:   sanitizeFilename(file.Filename),
		EventID:    eventID,
		UploadDate: h.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, h.Log, err, "document")
		return
	}
	name := "documents/" + strconv.Itoa(doc.ID) + "/" + doc.Filename
	url, err := saveUpload(r.Context(), h.Files, path.Dir(name), file)
	if err != nil {
		_ = h.Store.Documents.Delete(r.Context(), doc.ID)
		writeStoreError(w, h.Log, err, "document")
		return
	}
	doc, err = h.Store.Documents.Update(r.Context(), doc.ID, func(d *types.Document) error {
		d.FilePath = name
		d.FileURL = url
		return nil
	})
	if err != nil {
		writeStoreError(w, h.Log, err, "document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Download sends the document content inline with its filename.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := h.Store.Documents.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.Log, err, "document")
		return
	}
	data, err := h.Files.GetBytes(r.Context(), doc.FilePath)
	if err != nil {
		writeStoreError(w, h.Log, err, "document file")
		return
	}
	writeFile(w, doc.Filename, data)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := h.Store.Documents.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.Log, err, "document")
		return
	}
	if err := h.Store.Documents.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "document")
		return
	}
	if doc.FilePath != "" {
		if err := h.Files.Delete(r.Context(), doc.FilePath); err != nil {
			h.Log.Warn("delete document file", doc.FilePath, err)
		}
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Document deleted"})
}

func writeFile(w http.ResponseWriter, filename string, data []byte) {
	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
