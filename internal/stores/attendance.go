package stores

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Board is the presence picture of one event: who was marked present,
// who was marked absent, and who registered.
type Board struct {
	EventID       int
	Present       []types.Attendee
	Absent        []types.Attendee
	Registrations []types.Registration
	FetchedAt     time.Time
}

func (b Board) clone() Board {
	b.Present = append([]types.Attendee(nil), b.Present...)
	b.Absent = append([]types.Attendee(nil), b.Absent...)
	b.Registrations = append([]types.Registration(nil), b.Registrations...)
	return b
}

// AttendanceStore holds the presence board of the selected event and
// the attendance records fetched or marked through QR codes.
type AttendanceStore struct {
	deps Deps

	mu      sync.RWMutex
	board   Board
	records []types.AttendanceRecord
	loading int
	err     string
}

func NewAttendanceStore(deps Deps) *AttendanceStore {
	return &AttendanceStore{deps: deps.withDefaults()}
}

// Board returns a copy of the current board.
func (s *AttendanceStore) Board() Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.clone()
}

// Records returns the attendance records.
func (s *AttendanceStore) Records() []types.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.AttendanceRecord(nil), s.records...)
}

func (s *AttendanceStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

func (s *AttendanceStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// LoadBoard fetches the present, absent and registration lists of an
// event in parallel. The board is replaced only if all three succeed.
func (s *AttendanceStore) LoadBoard(ctx context.Context, eventID int) (Board, error) {
	s.begin()
	defer s.end()

	var board Board
	board.EventID = eventID
	base := eventPath(eventID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.getList(gctx, base+"/present")
		board.Present = users
		return errors.Wrap(err, "present users")
	})
	g.Go(func() error {
		users, err := s.getList(gctx, base+"/absent")
		board.Absent = users
		return errors.Wrap(err, "absent users")
	})
	g.Go(func() error {
		resp, err := s.deps.API.Do(gctx, apiclient.Request{Method: http.MethodGet, Path: base + "/registrations"})
		if err != nil {
			return errors.Wrap(err, "registrations")
		}
		regs, _, err := apiclient.DecodeKey[[]types.Registration](resp.Body, "registrations")
		board.Registrations = regs
		return errors.Wrap(err, "registrations")
	})
	if err := g.Wait(); err != nil {
		return Board{}, s.fail(err, "Failed to load presence lists")
	}
	board.FetchedAt = s.deps.Now()

	s.mu.Lock()
	s.board = board
	s.mu.Unlock()
	return board.clone(), nil
}

// RefreshBoard reloads the board of the current event.
func (s *AttendanceStore) RefreshBoard(ctx context.Context) (Board, error) {
	eventID := s.Board().EventID
	if eventID == 0 {
		return Board{}, errors.New("no event selected")
	}
	return s.LoadBoard(ctx, eventID)
}

// ClearBoard forgets the selected event.
func (s *AttendanceStore) ClearBoard() {
	s.mu.Lock()
	s.board = Board{}
	s.mu.Unlock()
}

// SetUserPresent marks a user present on the server, then moves the
// user locally from absent to present with a client timestamp. The
// other lists are not fetched again. A user already present is left
// as is.
func (s *AttendanceStore) SetUserPresent(ctx context.Context, eventID, userID int) error {
	s.begin()
	defer s.end()

	req := apiclient.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("%s/users/%d", eventPath(eventID), userID),
		Payload: apiclient.JSON(struct{}{}),
	}
	if _, err := s.deps.API.Do(ctx, req); err != nil {
		return s.fail(err, "Failed to mark user present")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board.EventID != eventID {
		return nil
	}

	var moved *types.Attendee
	absent := make([]types.Attendee, 0, len(s.board.Absent))
	for _, a := range s.board.Absent {
		if a.UserID == userID {
			a := a
			moved = &a
			continue
		}
		absent = append(absent, a)
	}
	s.board.Absent = absent

	for _, p := range s.board.Present {
		if p.UserID == userID {
			return nil
		}
	}
	if moved == nil {
		moved = s.attendeeFromRegistration(userID)
	}
	if moved == nil {
		return nil
	}
	moved.Status = types.AttendancePresent
	moved.Timestamp = s.deps.Now()
	s.board.Present = append(append([]types.Attendee(nil), s.board.Present...), *moved)
	return nil
}

// attendeeFromRegistration builds a present row for a pending
// registrant. Caller holds mu.
func (s *AttendanceStore) attendeeFromRegistration(userID int) *types.Attendee {
	for _, reg := range s.board.Registrations {
		if reg.UserID() != userID || reg.User == nil {
			continue
		}
		return &types.Attendee{
			UserID:     userID,
			FirstName:  reg.User.FirstName,
			LastName:   reg.User.LastName,
			Email:      reg.User.Email,
			Specialty:  reg.User.Specialty,
			Level:      reg.User.Level,
			UserStatus: reg.User.Status,
		}
	}
	return nil
}

// FetchAttendance loads the attendance records of an event.
func (s *AttendanceStore) FetchAttendance(ctx context.Context, eventID int) ([]types.AttendanceRecord, error) {
	s.begin()
	defer s.end()

	resp, err := s.deps.API.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: eventPath(eventID) + "/attendance"})
	if err != nil {
		return nil, s.fail(err, "Failed to load attendance")
	}
	records, _, err := apiclient.DecodeKey[[]types.AttendanceRecord](resp.Body, "attendance")
	if err != nil {
		return nil, s.fail(err, "Failed to load attendance")
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return append([]types.AttendanceRecord(nil), records...), nil
}

// CloseEvent ends attendance taking for an event. Registrants never
// marked are recorded absent by the server.
func (s *AttendanceStore) CloseEvent(ctx context.Context, eventID int) (string, error) {
	s.begin()
	defer s.end()

	resp, err := s.deps.API.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: eventPath(eventID) + "/close"})
	if err != nil {
		return "", s.fail(err, "Failed to close event")
	}
	msg, _, _ := apiclient.DecodeKey[string](resp.Body, "message")
	return msg, nil
}

// MarkByQR marks attendance from a scanned member QR code.
func (s *AttendanceStore) MarkByQR(ctx context.Context, eventID int, qrData string) (types.AttendanceRecord, error) {
	s.begin()
	defer s.end()

	req := apiclient.Request{
		Method: http.MethodPost,
		Path:   "/API/attendance/mark",
		Payload: apiclient.JSON(map[string]any{
			"event_id": eventID,
			"qr_data":  qrData,
		}),
	}
	resp, err := s.deps.API.Do(ctx, req)
	if err != nil {
		return types.AttendanceRecord{}, s.fail(err, "Failed to mark attendance")
	}
	record, present, err := apiclient.DecodeKey[types.AttendanceRecord](resp.Body, "attendance")
	if err == nil && !present {
		err = errors.New("response has no attendance record")
	}
	if err != nil {
		return types.AttendanceRecord{}, s.fail(err, "Failed to mark attendance")
	}

	s.mu.Lock()
	s.records = append(append([]types.AttendanceRecord(nil), s.records...), record)
	s.mu.Unlock()
	return record, nil
}

func (s *AttendanceStore) getList(ctx context.Context, path string) ([]types.Attendee, error) {
	resp, err := s.deps.API.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	users, _, err := apiclient.DecodeKey[[]types.Attendee](resp.Body, "users")
	return users, err
}

func (s *AttendanceStore) begin() {
	s.mu.Lock()
	s.loading++
	s.err = ""
	s.mu.Unlock()
}

func (s *AttendanceStore) end() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

func (s *AttendanceStore) fail(err error, fallback string) error {
	msg := fallbackMessage(err, fallback)
	s.deps.Logger.Error(msg, err)
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	return err
}

func eventPath(id int) string {
	return fmt.Sprintf("/API/events/%d", id)
}
