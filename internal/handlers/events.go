package handlers

import (
	"net/http"
	"strconv"

	"github.com/cellhub/admin/internal/store"
	"github.com/cellhub/admin/types"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// EventImageField is the multipart field of the event image.
const EventImageField = "event_image"

// EventHandler serves /API/events.
type EventHandler struct {
	Deps
}

// EventRouter registers event routes, including the presence routes of
// a single event.
func EventRouter(r chi.Router, deps Deps) {
	h := &EventHandler{deps.withDefaults()}
	presence := &AttendanceHandler{h.Deps}

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/registrations", h.Registrations)
		r.Get("/present", presence.Present)
		r.Get("/absent", presence.Absent)
		r.Post("/users/{userId}", presence.MarkPresent)
		r.Get("/attendance", presence.Attendance)
		r.Post("/close", presence.Close)
	})
}

// EventResponse wraps a single event. The list uses the same key.
type EventResponse struct {
	Event any `json:"event"`
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.Events.List(r.Context())
	if err != nil {
		writeStoreError(w, h.Log, err, "events")
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{Event: events})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	event, err := h.Store.Events.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.Log, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{Event: event})
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var event types.Event
	applyEventFields(r, &event)
	if event.Title == "" || event.Date == "" {
		writeError(w, http.StatusBadRequest, "title and date are required")
		return
	}
	if _, ok := types.ParseDay(event.Date, nil); !ok {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	if event.Type == "" {
		event.Type = "conference"
	}
	image, err := formFile(r.MultipartForm, EventImageField)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Store.Events.Create(r.Context(), event)
	if err != nil {
		writeStoreError(w, h.Log, err, "event")
		return
	}
	if image != nil {
		id := created.ID
		created, err = h.attachImage(r, id, image)
		if err != nil {
			_ = h.Store.Events.Delete(r.Context(), id)
			writeStoreError(w, h.Log, err, "event image")
			return
		}
	}
	writeJSON(w, http.StatusCreated, EventResponse{Event: created})
}

// Update changes the fields present in the form and replaces the image
// if one is sent.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := parseMultipart(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	image, err := formFile(r.MultipartForm, EventImageField)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.Store.Events.Update(r.Context(), id, func(e *types.Event) error {
		applyEventFields(r, e)
		if e.Title == "" {
			return errors.New("title is required")
		}
		if _, ok := types.ParseDay(e.Date, nil); !ok {
			return errors.New("invalid date")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeStoreError(w, h.Log, err, "event")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if image != nil {
		updated, err = h.attachImage(r, id, image)
		if err != nil {
			writeStoreError(w, h.Log, err, "event image")
			return
		}
	}
	writeJSON(w, http.StatusOK, EventResponse{Event: updated})
}

// Delete removes the event with its registrations and attendance.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Store.Events.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "event")
		return
	}
	for _, reg := range h.Store.Registrations.ForEvent(r.Context(), id) {
		_ = h.Store.Registrations.Delete(r.Context(), reg.ID)
	}
	h.Store.Attendance.DeleteEvent(r.Context(), id)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Event deleted"})
}

// Registrations lists the sign-ups of an event with the users embedded.
func (h *EventHandler) Registrations(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Store.Events.Get(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "event")
		return
	}
	regs := h.Store.Registrations.ForEvent(r.Context(), id)
	for i := range regs {
		if user, err := h.Store.Users.Get(r.Context(), regs[i].UserID()); err == nil {
			regs[i].User = &user
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *EventHandler) attachImage(r *http.Request, id int, image *Upload) (types.Event, error) {
	url, err := saveUpload(r.Context(), h.Files, "events/"+strconv.Itoa(id), image)
	if err != nil {
		return types.Event{}, err
	}
	return h.Store.Events.Update(r.Context(), id, func(e *types.Event) error {
		e.ImageURL = url
		return nil
	})
}

func applyEventFields(r *http.Request, e *types.Event) {
	fields := map[string]*string{
		"title":        &e.Title,
		"description":  &e.Description,
		"type":         &e.Type,
		"date":         &e.Date,
		"time_start":   &e.TimeStart,
		"time_end":     &e.TimeEnd,
		"location":     &e.Location,
		"responsable":  &e.Responsable,
		"cellule_name": &e.CelluleName,
	}
	for name, target := range fields {
		if value, ok := formValue(r, name); ok {
			*target = value
		}
	}
}
