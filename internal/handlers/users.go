package handlers

import (
	"net/http"
	"strings"

	"github.com/cellhub/admin/types"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves /API/users.
type UserHandler struct {
	Deps
}

// UserRouter registers user and moderation routes.
func UserRouter(r chi.Router, deps Deps) {
	h := &UserHandler{deps.withDefaults()}

	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Put("/accept", h.Accept)
		r.Put("/reject", h.Reject)
	})
}

type UserResponse struct {
	Message string     `json:"message,omitempty"`
	User    types.User `json:"user"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// UpdateUserRequest holds the profile fields an administrator may edit.
// Status and role are changed through accept and reject only.
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Level       *string `json:"level"`
	Specialty   *string `json:"specialty"`
	Gender      *string `json:"gender"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.Users.List(r.Context())
	if err != nil {
		writeStoreError(w, h.Log, err, "users")
		return
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.Store.Users.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.Store.Users.Update(r.Context(), id, func(u *types.User) error {
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = strings.TrimSpace(*src)
			}
		}
		set(&u.FirstName, req.FirstName)
		set(&u.LastName, req.LastName)
		set(&u.PhoneNumber, req.PhoneNumber)
		set(&u.Level, req.Level)
		set(&u.Specialty, req.Specialty)
		set(&u.Gender, req.Gender)
		return nil
	})
	if err != nil {
		writeStoreError(w, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "User accepted", func(u *types.User) error {
		u.Status = types.UserAllowed
		u.IsActive = true
		u.RejectionReason = ""
		return nil
	})
}

// Reject denies an account. The reason is required.
func (h *UserHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		writeError(w, http.StatusBadRequest, "a rejection reason is required")
		return
	}
	h.moderate(w, r, "User rejected", func(u *types.User) error {
		u.Status = types.UserDenied
		u.IsActive = false
		u.RejectionReason = reason
		return nil
	})
}

func (h *UserHandler) moderate(w http.ResponseWriter, r *http.Request, message string, fn func(*types.User) error) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.Store.Users.Update(r.Context(), id, fn)
	if err != nil {
		writeStoreError(w, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Message: message, User: user})
}

// Delete removes the account. An administrator cannot delete itself.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if self, err := userIDFromContext(r.Context()); err == nil && self == id {
		writeError(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}
	if err := h.Store.Users.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "user")
		return
	}
	regs := h.Store.Registrations.Filter(r.Context(), func(reg types.Registration) bool { return reg.UserID() == id })
	for _, reg := range regs {
		_ = h.Store.Registrations.Delete(r.Context(), reg.ID)
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted"})
}
