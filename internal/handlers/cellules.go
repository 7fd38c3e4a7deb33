package handlers

import (
	"net/http"
	"strconv"

	"github.com/cellhub/admin/types"
	"github.com/go-chi/chi/v5"
)

// Multipart fields of the cellule image.
const (
	CelluleImageCreateField = "cell_image_url"
	CelluleImageUpdateField = "uploaded_cell_image"
)

// CelluleHandler serves /API/cellules.
type CelluleHandler struct {
	Deps
}

// CelluleRouter registers cellule and membership routes.
func CelluleRouter(r chi.Router, deps Deps) {
	h := &CelluleHandler{deps.withDefaults()}

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/users", h.Members)
		r.Post("/users/{userId}", h.AddMember)
		r.Delete("/users/{userId}", h.RemoveMember)
	})
}

type CellsResponse struct {
	Cells []types.Cellule `json:"cells"`
}

type CellResponse struct {
	Cell types.Cellule `json:"cell"`
}

func (h *CelluleHandler) List(w http.ResponseWriter, r *http.Request) {
	cells, err := h.Store.Cellules.List(r.Context())
	if err != nil {
		writeStoreError(w, h.Log, err, "cellules")
		return
	}
	writeJSON(w, http.StatusOK, CellsResponse{Cells: cells})
}

func (h *CelluleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cell, err := h.Store.Cellules.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.Log, err, "cellule")
		return
	}
	writeJSON(w, http.StatusOK, CellResponse{Cell: cell})
}

func (h *CelluleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var cell types.Cellule
	applyCelluleFields(r, &cell)
	if cell.Name == "" || cell.Abbreviation == "" {
		writeError(w, http.StatusBadRequest, "name and abbreviation are required")
		return
	}
	image, err := formFile(r.MultipartForm, CelluleImageCreateField)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Store.Cellules.Create(r.Context(), cell)
	if err != nil {
		writeStoreError(w, h.Log, err, "cellule")
		return
	}
	if image != nil {
		id := created.ID
		if created, err = h.attachImage(r, id, image); err != nil {
			_ = h.Store.Cellules.Delete(r.Context(), id)
			writeStoreError(w, h.Log, err, "cellule image")
			return
		}
	}
	writeJSON(w, http.StatusCreated, CellResponse{Cell: created})
}

func (h *CelluleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := parseMultipart(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	image, err := formFile(r.MultipartForm, CelluleImageUpdateField)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.Store.Cellules.Update(r.Context(), id, func(c *types.Cellule) error {
		applyCelluleFields(r, c)
		return nil
	})
	if err != nil {
		writeStoreError(w, h.Log, err, "cellule")
		return
	}
	if image != nil {
		if updated, err = h.attachImage(r, id, image); err != nil {
			writeStoreError(w, h.Log, err, "cellule image")
			return
		}
	}
	writeJSON(w, http.StatusOK, CellResponse{Cell: updated})
}

func (h *CelluleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Store.Cellules.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "cellule")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Cellule deleted"})
}

// Members lists the users of a cellule.
func (h *CelluleHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Store.Cellules.Get(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "cellule")
		return
	}
	users := []types.User{}
	for _, userID := range h.Store.Cellules.MemberIDs(r.Context(), id) {
		if user, err := h.Store.Users.Get(r.Context(), userID); err == nil {
			users = append(users, user)
		}
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

func (h *CelluleHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.membership(w, r)
	if !ok {
		return
	}
	if _, err := h.Store.Users.Get(r.Context(), userID); err != nil {
		writeStoreError(w, h.Log, err, "user")
		return
	}
	if err := h.Store.Cellules.AddMember(r.Context(), id, userID); err != nil {
		writeStoreError(w, h.Log, err, "cellule")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Member added"})
}

func (h *CelluleHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.membership(w, r)
	if !ok {
		return
	}
	if err := h.Store.Cellules.RemoveMember(r.Context(), id, userID); err != nil {
		writeStoreError(w, h.Log, err, "member")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Member removed"})
}

func (h *CelluleHandler) membership(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	userID, err := parseID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return id, userID, true
}

func (h *CelluleHandler) attachImage(r *http.Request, id int, image *Upload) (types.Cellule, error) {
	url, err := saveUpload(r.Context(), h.Files, "cellules/"+strconv.Itoa(id), image)
	if err != nil {
		return types.Cellule{}, err
	}
	return h.Store.Cellules.Update(r.Context(), id, func(c *types.Cellule) error {
		c.ImageCell = url
		return nil
	})
}

func applyCelluleFields(r *http.Request, c *types.Cellule) {
	if v, ok := formValue(r, "name"); ok {
		c.Name = v
	}
	if v, ok := formValue(r, "abbreviation"); ok {
		c.Abbreviation = v
	}
	if v, ok := formValue(r, "domain"); ok {
		c.Domain = v
	}
}
