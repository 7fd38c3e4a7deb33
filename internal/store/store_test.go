package store

import (
	"context"
	"testing"
	"time"

	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTableAssignsIDsAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	events := New().Events

	a, _ := events.Create(ctx, types.Event{Title: "A", ID: 99})
	b, _ := events.Create(ctx, types.Event{Title: "B"})
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	require.NoError(t, events.Delete(ctx, 1))
	c, _ := events.Create(ctx, types.Event{Title: "C"})
	assert.Equal(t, 3, c.ID)

	list, err := events.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, []string{list[0].Title, list[1].Title})

	assert.True(t, errors.Is(events.Delete(ctx, 1), ErrNotFound))
	_, err = events.Get(ctx, 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTableUpdateKeepsIDAndRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	events := New().Events
	e, _ := events.Create(ctx, types.Event{Title: "A"})

	updated, err := events.Update(ctx, e.ID, func(row *types.Event) error {
		row.Title = "B"
		row.ID = 77
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, e.ID, updated.ID)

	_, err = events.Update(ctx, e.ID, func(row *types.Event) error {
		row.Title = "C"
		return errors.New("nope")
	})
	require.Error(t, err)
	got, _ := events.Get(ctx, e.ID)
	assert.Equal(t, "B", got.Title)
}

func TestUserRepositoryUniqueEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository()
	u, err := users.Register(ctx, types.User{Email: "a@x.org"}, "hash")
	require.NoError(t, err)

	_, err = users.Register(ctx, types.User{Email: "A@X.org"}, "hash")
	assert.True(t, errors.Is(err, ErrConflict))

	got, err := users.GetByEmail(ctx, " a@x.org ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, users.Delete(ctx, u.ID))
	_, err = users.PasswordHash(ctx, u.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAttendanceMarkReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.Mark(ctx, 1, 5, types.AttendanceAbsent, now)
	repo.Mark(ctx, 1, 5, types.AttendancePresent, now.Add(time.Minute))
	repo.Mark(ctx, 2, 5, types.AttendanceAbsent, now)

	records := repo.ForEvent(ctx, 1)
	require.Len(t, records, 1)
	assert.Equal(t, types.AttendancePresent, records[0].Status)
	assert.True(t, repo.Marked(ctx, 2, 5))
	assert.False(t, repo.Marked(ctx, 2, 6))
}

func TestCelluleMembers(t *testing.T) {
	ctx := context.Background()
	cells := NewCelluleRepository()
	c, _ := cells.Create(ctx, types.Cellule{Name: "Robotics"})

	require.NoError(t, cells.AddMember(ctx, c.ID, 1))
	require.NoError(t, cells.AddMember(ctx, c.ID, 1))
	require.NoError(t, cells.AddMember(ctx, c.ID, 2))
	assert.Equal(t, []int{1, 2}, cells.MemberIDs(ctx, c.ID))

	require.NoError(t, cells.RemoveMember(ctx, c.ID, 1))
	assert.True(t, errors.Is(cells.RemoveMember(ctx, c.ID, 1), ErrNotFound))
	assert.True(t, errors.Is(cells.AddMember(ctx, 99, 1), ErrNotFound))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Seed(ctx, SeedOptions{
		AdminEmail: "admin@cellhub.local", AdminPassword: "secret", Cost: bcrypt.MinCost,
		Now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}))

	admin, err := s.Users.GetByEmail(ctx, "admin@cellhub.local")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	hash, err := s.Users.PasswordHash(ctx, admin.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))

	events, _ := s.Events.List(ctx)
	require.Len(t, events, 2)
	assert.Equal(t, "2026-03-08", events[0].Date)
	assert.Len(t, s.Registrations.ForEvent(ctx, events[0].ID), 2)
	assert.Len(t, s.Cellules.MemberIDs(ctx, 1), 2)
}
