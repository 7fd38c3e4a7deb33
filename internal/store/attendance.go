package store

import (
	"context"
	"sync"
	"time"

	"github.com/cellhub/admin/types"
)

// RegistrationRepository holds event sign-ups.
type RegistrationRepository struct {
	*Table[types.Registration]
}

func NewRegistrationRepository() *RegistrationRepository {
	return &RegistrationRepository{NewTable(
		func(r types.Registration) int { return r.ID },
		func(r *types.Registration, id int) { r.ID = id },
	)}
}

func (r *RegistrationRepository) ForEvent(ctx context.Context, eventID int) []types.Registration {
	return r.Filter(ctx, func(reg types.Registration) bool { return reg.EventID == eventID })
}

// SetStatus updates the registration of userID for eventID, if any.
func (r *RegistrationRepository) SetStatus(ctx context.Context, eventID, userID int, status types.RegistrationStatus) {
	for _, reg := range r.ForEvent(ctx, eventID) {
		if reg.UserID() == userID {
			_, _ = r.Update(ctx, reg.ID, func(row *types.Registration) error {
				row.Status = status
				return nil
			})
		}
	}
}

// AttendanceRepository holds one mark per user and event. Marking again
// replaces the previous mark.
type AttendanceRepository struct {
	mu      sync.RWMutex
	byEvent map[int][]types.AttendanceRecord
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{byEvent: map[int][]types.AttendanceRecord{}}
}

func (r *AttendanceRepository) Mark(_ context.Context, eventID, userID int, status types.AttendanceStatus, at time.Time) types.AttendanceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := types.AttendanceRecord{EventID: eventID, UserID: userID, Status: status, Timestamp: at}
	records := r.byEvent[eventID]
	for i, existing := range records {
		if existing.UserID == userID {
			records[i] = record
			return record
		}
	}
	r.byEvent[eventID] = append(records, record)
	return record
}

func (r *AttendanceRepository) ForEvent(_ context.Context, eventID int) []types.AttendanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.AttendanceRecord{}, r.byEvent[eventID]...)
}

// Marked reports whether userID has a mark for eventID.
func (r *AttendanceRepository) Marked(_ context.Context, eventID, userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, record := range r.byEvent[eventID] {
		if record.UserID == userID {
			return true
		}
	}
	return false
}

// DeleteEvent drops every mark of an event.
func (r *AttendanceRepository) DeleteEvent(_ context.Context, eventID int) {
	r.mu.Lock()
	delete(r.byEvent, eventID)
	r.mu.Unlock()
}
