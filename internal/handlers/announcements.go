package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/cellhub/admin/types"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// AnnouncementHandler serves /API/announcements. Bodies are JSON.
type AnnouncementHandler struct {
	Deps
}

func AnnouncementRouter(r chi.Router, deps Deps) {
	h := &AnnouncementHandler{deps.withDefaults()}

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type AnnouncementRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	URL      string `json:"url"`
	IsActive *bool  `json:"isActive"`
}

func (req AnnouncementRequest) validate() error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Subtitle) == "" {
		return errors.New("title and subtitle are required")
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("a valid url is required")
	}
	return nil
}

func (req AnnouncementRequest) apply(a *types.Announcement) {
	a.Title = strings.TrimSpace(req.Title)
	a.Subtitle = strings.TrimSpace(req.Subtitle)
	a.URL = strings.TrimSpace(req.URL)
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
}

type AnnouncementResponse struct {
	Announcement types.Announcement `json:"announcement"`
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.Announcements.List(r.Context())
	if err != nil {
		writeStoreError(w, h.Log, err, "announcements")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcements": items})
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a := types.Announcement{IsActive: true}
	req.apply(&a)
	created, err := h.Store.Announcements.Create(r.Context(), a)
	if err != nil {
		writeStoreError(w, h.Log, err, "announcement")
		return
	}
	writeJSON(w, http.StatusCreated, AnnouncementResponse{Announcement: created})
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req AnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.Store.Announcements.Update(r.Context(), id, func(a *types.Announcement) error {
		req.apply(a)
		return nil
	})
	if err != nil {
		writeStoreError(w, h.Log, err, "announcement")
		return
	}
	writeJSON(w, http.StatusOK, AnnouncementResponse{Announcement: updated})
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Store.Announcements.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "announcement")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Announcement deleted"})
}
