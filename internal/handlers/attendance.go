package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cellhub/admin/types"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// qrPrefix starts the text form of a member QR code, "cellhub:user:<id>".
const qrPrefix = "cellhub:user:"

// AttendanceHandler serves the presence lists of events and QR marking.
type AttendanceHandler struct {
	Deps
}

// AttendanceRouter registers /API/attendance.
func AttendanceRouter(r chi.Router, deps Deps) {
	h := &AttendanceHandler{deps.withDefaults()}
	r.Post("/mark", h.MarkByQR)
}

// UsersResponse wraps a list of users or attendees.
type UsersResponse struct {
	Users any `json:"users"`
}

type AttendanceResponse struct {
	Message    string                  `json:"message,omitempty"`
	Attendance *types.AttendanceRecord `json:"attendance,omitempty"`
}

type MarkRequest struct {
	EventID int    `json:"event_id"`
	QRData  string `json:"qr_data"`
}

func (h *AttendanceHandler) Present(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, types.AttendancePresent)
}

func (h *AttendanceHandler) Absent(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, types.AttendanceAbsent)
}

func (h *AttendanceHandler) listByStatus(w http.ResponseWriter, r *http.Request, status types.AttendanceStatus) {
	eventID, ok := h.event(w, r)
	if !ok {
		return
	}
	attendees := []types.Attendee{}
	for _, record := range h.Store.Attendance.ForEvent(r.Context(), eventID) {
		if record.Status != status {
			continue
		}
		user, err := h.Store.Users.Get(r.Context(), record.UserID)
		if err != nil {
			continue
		}
		attendees = append(attendees, types.Attendee{
			UserID:     user.ID,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			Email:      user.Email,
			Specialty:  user.Specialty,
			Level:      user.Level,
			UserStatus: user.Status,
			Status:     record.Status,
			Timestamp:  record.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: attendees})
}

// MarkPresent marks a user present at an event.
func (h *AttendanceHandler) MarkPresent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.event(w, r)
	if !ok {
		return
	}
	userID, err := parseID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := h.markPresent(r.Context(), eventID, userID)
	if err != nil {
		writeStoreError(w, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, AttendanceResponse{Message: "User marked present", Attendance: &record})
}

// Attendance lists the raw marks of an event.
func (h *AttendanceHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.event(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attendance": h.Store.Attendance.ForEvent(r.Context(), eventID)})
}

// Close marks every registrant without a mark absent.
func (h *AttendanceHandler) Close(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.event(w, r)
	if !ok {
		return
	}
	now := h.Now()
	absent := 0
	for _, reg := range h.Store.Registrations.ForEvent(r.Context(), eventID) {
		if reg.Status == types.RegistrationCancelled {
			continue
		}
		userID := reg.UserID()
		if h.Store.Attendance.Marked(r.Context(), eventID, userID) {
			continue
		}
		h.Store.Attendance.Mark(r.Context(), eventID, userID, types.AttendanceAbsent, now)
		h.Store.Registrations.SetStatus(r.Context(), eventID, userID, types.RegistrationAbsent)
		absent++
	}
	writeJSON(w, http.StatusOK, AttendanceResponse{Message: fmt.Sprintf("Event closed: %d marked absent", absent)})
}

// MarkByQR marks the member encoded in a scanned QR code present.
func (h *AttendanceHandler) MarkByQR(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EventID < 1 {
		writeError(w, http.StatusBadRequest, "event_id is required")
		return
	}
	userID, err := ParseQR(req.QRData)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Store.Events.Get(r.Context(), req.EventID); err != nil {
		writeStoreError(w, h.Log, err, "event")
		return
	}
	record, err := h.markPresent(r.Context(), req.EventID, userID)
	if err != nil {
		writeStoreError(w, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, AttendanceResponse{Message: "Attendance recorded", Attendance: &record})
}

// ParseQR extracts the user id of a member QR code. Accepted forms are
// a JSON object with user_id, "cellhub:user:<id>" and a bare id.
func ParseQR(data string) (int, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return 0, errors.New("qr_data is required")
	}
	var id int
	if strings.HasPrefix(data, "{") {
		var payload struct {
			UserID int `json:"user_id"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return 0, errors.New("invalid qr_data")
		}
		id = payload.UserID
	} else {
		n, err := strconv.Atoi(strings.TrimPrefix(data, qrPrefix))
		if err != nil {
			return 0, errors.New("invalid qr_data")
		}
		id = n
	}
	if id < 1 {
		return 0, errors.New("invalid qr_data")
	}
	return id, nil
}

func (h *AttendanceHandler) markPresent(ctx context.Context, eventID, userID int) (types.AttendanceRecord, error) {
	if _, err := h.Store.Users.Get(ctx, userID); err != nil {
		return types.AttendanceRecord{}, err
	}
	record := h.Store.Attendance.Mark(ctx, eventID, userID, types.AttendancePresent, h.Now())
	h.Store.Registrations.SetStatus(ctx, eventID, userID, types.RegistrationPresent)
	return record, nil
}

// event parses the event id and checks the event exists.
func (h *AttendanceHandler) event(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if _, err := h.Store.Events.Get(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err, "event")
		return 0, false
	}
	return id, true
}
