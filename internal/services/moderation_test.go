package services

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/cellhub/admin/internal/notify"
	"github.com/cellhub/admin/internal/stores"
	"github.com/cellhub/admin/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moderationFixture(t *testing.T) (*backend, *Moderation, *notify.Recorder) {
	t.Helper()
	b := newBackend()
	b.json(http.MethodGet, "/API/users", http.StatusOK, map[string]any{"users": []types.User{
		{ID: 1, Status: types.UserPending},
		{ID: 2, Status: types.UserPending},
	}})
	users := stores.NewUserStore(b.deps(t))
	require.NoError(t, users.FetchAll(context.Background()))
	rec := &notify.Recorder{}
	return b, NewModeration(users, rec, nil), rec
}

func TestAcceptNotifiesAndReloads(t *testing.T) {
	b, m, rec := moderationFixture(t)
	b.json(http.MethodPut, "/API/users/1/accept", http.StatusOK, map[string]any{"message": "ok"})

	require.NoError(t, m.Accept(context.Background(), 1))

	assert.Equal(t, 2, b.count(http.MethodGet, "/API/users"))
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Notification{Level: notify.LevelSuccess, Action: "users.accept", Message: "User accepted", At: last.At}, last)
}

func TestRejectRequiresReason(t *testing.T) {
	b, m, rec := moderationFixture(t)

	err := m.Reject(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, stores.ErrReasonRequired)
	assert.Zero(t, b.count(http.MethodPut, "/API/users/1/reject"))
	last, _ := rec.Last()
	assert.Equal(t, notify.LevelError, last.Level)
}

func TestRejectSendsReason(t *testing.T) {
	b, m, _ := moderationFixture(t)
	var body string
	b.raw(http.MethodPut, "/API/users/2/reject", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, m.Reject(context.Background(), 2, " incomplete file "))
	assert.JSONEq(t, `{"reason":"incomplete file"}`, body)
}

func TestDeleteFailureUsesServerMessage(t *testing.T) {
	b, m, rec := moderationFixture(t)
	b.json(http.MethodDelete, "/API/users/2", http.StatusConflict, map[string]any{"error": "user has registrations"})

	require.Error(t, m.Delete(context.Background(), 2))
	last, _ := rec.Last()
	assert.Equal(t, "user has registrations", last.Message)
	assert.Equal(t, 1, b.count(http.MethodGet, "/API/users"))
}
