package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cellhub/admin/internal/stores"
	"github.com/cellhub/admin/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	users := []types.User{
		{ID: 1, IsActive: true, Gender: "female", Level: "ci"},
		{ID: 2, IsActive: true, Gender: "male", Level: "cs"},
		{ID: 3, Gender: "female", Level: "cs"},
		{ID: 4, Level: "cc"},
		{ID: 5, Level: "ct"},
		{ID: 6, Level: "m1"},
		{ID: 7, Level: "m2"},
		{ID: 8, Level: "cs"},
	}
	events := []types.Event{
		{ID: 1, Type: "workshop", Date: "2025-09-03"},
		{ID: 2, Type: "conference", Date: "2025-10-10"},
		{ID: 3, Type: "workshop", Date: "2025-12-01"},
		{ID: 4, Date: "2026-01-20"},
		{ID: 5, Type: "conference", Date: "2026-02-14T00:00:00.000Z"},
		{ID: 6, Type: "workshop", Date: "2026-04-15"},
		{ID: 7, Type: "workshop", Date: "2026-05-02"},
		{ID: 8, Type: "conference", Date: "2026-04-16"},
		{ID: 9, Type: "workshop", Date: "not a date"},
	}
	docs := make([]types.Document, 7)
	for i := range docs {
		docs[i] = types.Document{ID: i + 1}
	}

	s := ComputeStats(Collections{
		Users:         users,
		Events:        events,
		Documents:     docs,
		Cellules:      []types.Cellule{{ID: 1}},
		Announcements: []types.Announcement{{ID: 1}, {ID: 2}},
	}, testNow)

	assert.Equal(t, 8, s.TotalUsers)
	assert.Equal(t, 2, s.ActiveUsers)
	assert.Equal(t, 9, s.TotalEvents)
	assert.Equal(t, 7, s.TotalDocuments)
	assert.Equal(t, 1, s.TotalCellules)
	assert.Equal(t, 2, s.TotalAnnouncements)

	// Today's event started at midnight, so only later days count.
	assert.Equal(t, 2, s.UpcomingEvents)
	require.Len(t, s.NextEvents, 2)
	assert.Equal(t, 8, s.NextEvents[0].ID)
	assert.Equal(t, 7, s.NextEvents[1].ID)

	assert.Equal(t, []Count{{"workshop", 5}, {"conference", 3}, {Unspecified, 1}}, s.EventTypes)
	assert.Equal(t, []Count{{"female", 2}, {"male", 1}, {Unspecified, 5}}, s.Genders)

	require.Len(t, s.Levels, 6)
	assert.Equal(t, Count{"cs", 3}, s.Levels[0])
	assert.Equal(t, Count{"ci", 1}, s.Levels[1])

	assert.Equal(t, []Count{
		{"Oct 2025", 1}, {"Dec 2025", 1}, {"Jan 2026", 1}, {"Feb 2026", 1}, {"Apr 2026", 2}, {"May 2026", 1},
	}, s.Monthly)

	assert.Len(t, s.RecentDocuments, 5)
	assert.Equal(t, 1, s.RecentDocuments[0].ID)
}

func TestSummarizeAttendance(t *testing.T) {
	records := []types.AttendanceRecord{
		{EventID: 1, Status: types.AttendancePresent},
		{EventID: 1, Status: types.AttendancePresent},
		{EventID: 1, Status: types.AttendanceAbsent},
		{EventID: 2, Status: types.AttendanceAbsent},
	}
	assert.Equal(t, AttendanceSummary{EventID: 1, Total: 3, Present: 2, Rate: 67}, SummarizeAttendance(records, 1))
	assert.Equal(t, AttendanceSummary{EventID: 3}, SummarizeAttendance(records, 3))
}

func TestDashboardLoadKeepsPartialData(t *testing.T) {
	b := newBackend()
	b.json(http.MethodGet, "/API/announcements", http.StatusOK, map[string]any{"announcements": []types.Announcement{{ID: 1}}})
	b.json(http.MethodGet, "/API/cellules", http.StatusOK, map[string]any{"cells": []types.Cellule{{ID: 1}, {ID: 2}}})
	b.json(http.MethodGet, "/API/documents", http.StatusOK, map[string]any{"documents": []types.Document{}})
	b.json(http.MethodGet, "/API/events", http.StatusInternalServerError, map[string]any{"message": "db down"})
	b.json(http.MethodGet, "/API/users", http.StatusOK, map[string]any{"users": []types.User{{ID: 1, IsActive: true}}})
	b.json(http.MethodGet, "/API/events/3/attendance", http.StatusOK, map[string]any{"attendance": []types.AttendanceRecord{
		{EventID: 3, UserID: 1, Status: types.AttendancePresent},
		{EventID: 3, UserID: 2, Status: types.AttendanceAbsent},
	}})

	deps := b.deps(t)
	d := &Dashboard{
		Users:         stores.NewUserStore(deps),
		Events:        stores.NewEventStore(deps),
		Cellules:      stores.NewCelluleStore(deps),
		Documents:     stores.NewDocumentStore(deps),
		Announcements: stores.NewAnnouncementStore(deps),
		Attendance:    stores.NewAttendanceStore(deps),
		Now:           func() time.Time { return testNow },
	}

	err := d.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events")

	s := d.Stats()
	assert.Equal(t, 1, s.TotalUsers)
	assert.Equal(t, 2, s.TotalCellules)
	assert.Equal(t, 0, s.TotalEvents)
	assert.Equal(t, "db down", d.Events.Err())

	sum, err := d.EventAttendance(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 50, sum.Rate)
}

func TestDashboardRefreshSkipsFreshCollections(t *testing.T) {
	b := newBackend()
	b.json(http.MethodGet, "/API/announcements", http.StatusOK, map[string]any{"announcements": []types.Announcement{}})
	b.json(http.MethodGet, "/API/cellules", http.StatusOK, map[string]any{"cells": []types.Cellule{}})
	b.json(http.MethodGet, "/API/documents", http.StatusOK, map[string]any{"documents": []types.Document{}})
	b.json(http.MethodGet, "/API/events", http.StatusOK, map[string]any{"events": []types.Event{}})
	b.json(http.MethodGet, "/API/users", http.StatusOK, map[string]any{"users": []types.User{}})

	deps := b.deps(t)
	d := &Dashboard{
		Users:         stores.NewUserStore(deps),
		Events:        stores.NewEventStore(deps),
		Cellules:      stores.NewCelluleStore(deps),
		Documents:     stores.NewDocumentStore(deps),
		Announcements: stores.NewAnnouncementStore(deps),
		Attendance:    stores.NewAttendanceStore(deps),
		MaxAge:        time.Minute,
	}

	require.NoError(t, d.Events.FetchAll(context.Background()))
	require.NoError(t, d.Refresh(context.Background()))

	assert.Equal(t, 1, b.count(http.MethodGet, "/API/events"))
	assert.Equal(t, 1, b.count(http.MethodGet, "/API/users"))
	assert.Equal(t, 1, b.count(http.MethodGet, "/API/cellules"))
}
