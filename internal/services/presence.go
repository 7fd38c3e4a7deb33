package services

import (
	"context"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/notify"
	"github.com/cellhub/admin/internal/stores"
	"github.com/cellhub/admin/types"
)

// PresenceBoard is a read-only view over an event's presence lists.
type PresenceBoard struct {
	stores.Board
}

// Pending lists registrations whose user is neither present nor absent.
func (b PresenceBoard) Pending() []types.Registration {
	marked := make(map[int]bool, len(b.Present)+len(b.Absent))
	for _, a := range b.Present {
		marked[a.UserID] = true
	}
	for _, a := range b.Absent {
		marked[a.UserID] = true
	}
	out := make([]types.Registration, 0, len(b.Registrations))
	for _, r := range b.Registrations {
		if !marked[r.UserID()] {
			out = append(out, r)
		}
	}
	return out
}

// PresenceStats are list sizes and their share of registrations, in
// percent.
type PresenceStats struct {
	Registrations int
	Present       int
	Absent        int
	Pending       int

	PresentPercent float64
	AbsentPercent  float64
	PendingPercent float64
}

func (b PresenceBoard) Stats() PresenceStats {
	s := PresenceStats{
		Registrations: len(b.Registrations),
		Present:       len(b.Present),
		Absent:        len(b.Absent),
		Pending:       len(b.Pending()),
	}
	if s.Registrations > 0 {
		total := float64(s.Registrations)
		s.PresentPercent = float64(s.Present) / total * 100
		s.AbsentPercent = float64(s.Absent) / total * 100
		s.PendingPercent = float64(s.Pending) / total * 100
	}
	return s
}

// Search filters the three lists by name, email and specialty.
func (b PresenceBoard) Search(term string) PresenceBoard {
	out := b
	out.Present = FilterAttendees(b.Present, term)
	out.Absent = FilterAttendees(b.Absent, term)
	out.Registrations = FilterRegistrations(b.Registrations, term)
	return out
}

// Presence drives the presence page: loading an event's board and
// marking users present, with a notification for each outcome.
type Presence struct {
	store    *stores.AttendanceStore
	notifier notify.Notifier
}

func NewPresence(store *stores.AttendanceStore, notifier notify.Notifier) *Presence {
	return &Presence{store: store, notifier: notifier}
}

// Load selects an event and fetches its board.
func (p *Presence) Load(ctx context.Context, eventID int) (PresenceBoard, error) {
	board, err := p.store.LoadBoard(ctx, eventID)
	if err != nil {
		p.notify(ctx, notify.Failure("presence.load", apiclient.MessageOf(err, "Failed to load participants")))
		return PresenceBoard{}, err
	}
	return PresenceBoard{Board: board}, nil
}

// Refresh reloads the selected event.
func (p *Presence) Refresh(ctx context.Context) (PresenceBoard, error) {
	board, err := p.store.RefreshBoard(ctx)
	if err != nil {
		p.notify(ctx, notify.Failure("presence.refresh", "Failed to refresh list"))
		return PresenceBoard{}, err
	}
	p.notify(ctx, notify.Success("presence.refresh", "List refreshed"))
	return PresenceBoard{Board: board}, nil
}

// MarkPresent marks a user present on the selected event.
func (p *Presence) MarkPresent(ctx context.Context, eventID, userID int) (PresenceBoard, error) {
	if err := p.store.SetUserPresent(ctx, eventID, userID); err != nil {
		p.notify(ctx, notify.Failure("presence.mark", "Failed to update presence"))
		return PresenceBoard{}, err
	}
	p.notify(ctx, notify.Success("presence.mark", "User marked present"))
	return p.Board(), nil
}

// Board is the current board.
func (p *Presence) Board() PresenceBoard {
	return PresenceBoard{Board: p.store.Board()}
}

func (p *Presence) notify(ctx context.Context, n notify.Notification) {
	if p.notifier != nil {
		_ = p.notifier.Notify(ctx, n)
	}
}
