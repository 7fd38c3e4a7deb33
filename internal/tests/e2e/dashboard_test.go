package e2e

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/forms"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/notify"
	"github.com/cellhub/admin/internal/server"
	"github.com/cellhub/admin/internal/services"
	"github.com/cellhub/admin/internal/session"
	"github.com/cellhub/admin/internal/storage"
	"github.com/cellhub/admin/internal/stores"
	"github.com/cellhub/admin/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@cellhub.local"
	adminPassword = "testpass123!"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type env struct {
	api      *httptest.Server
	dash     *dashboard.Dashboard
	sess     *session.Store
	recorder *notify.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	srv, err := server.New(ctx, config.DevServerConfig{
		JWTSecret:     "e2e-secret",
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}, server.Options{BcryptCost: bcrypt.MinCost, Quiet: true})
	require.NoError(t, err)
	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)

	sess := session.NewMemory()
	rec := &notify.Recorder{}
	d, err := dashboard.New(ctx, config.Config{APIURL: api.URL},
		dashboard.WithSession(sess),
		dashboard.WithLogger(logger.Nop{}),
		dashboard.WithNotifier(rec),
		dashboard.WithArchive(storage.NewStorage(storage.NewMemory("archive"), "bundles")),
	)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	return &env{api: api, dash: d, sess: sess, recorder: rec}
}

func (e *env) login(t *testing.T) {
	t.Helper()
	_, err := e.dash.Auth.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, e.dash.LoggedIn())
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.dash.Auth.Login(ctx, adminEmail, "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", e.dash.Auth.Err())
	assert.False(t, e.dash.LoggedIn())

	_, err = e.dash.Auth.Login(ctx, "amina@cellhub.local", adminPassword)
	require.ErrorIs(t, err, stores.ErrNotAdmin)
	assert.Empty(t, e.sess.Token())

	user, err := e.dash.Auth.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, user.RoleID)
	assert.NotEmpty(t, e.sess.Token())
	assert.NotEmpty(t, e.sess.Cookies())

	require.NoError(t, e.dash.Auth.Logout())
	assert.False(t, e.dash.LoggedIn())
}

func TestStaleTokenIsRefreshedAndReplayed(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	require.NoError(t, e.sess.SetToken("stale"))

	require.NoError(t, e.dash.Events.FetchAll(ctx))
	assert.Len(t, e.dash.Events.Items(), 2)
	assert.NotEqual(t, "stale", e.sess.Token())
	assert.True(t, e.dash.LoggedIn())
}

func TestEventLifecycle(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	modal := e.dash.EventModal()
	modal.OpenCreate()
	fields := map[string]string{
		"title":        "Drone race",
		"description":  "Indoor race between the club drones",
		"date":         time.Now().AddDate(0, 0, 10).Format("2006-01-02"),
		"time_start":   "09:00",
		"time_end":     "11:30",
		"location":     "Gymnasium",
		"responsable":  "Yanis",
		"cellule_name": "Robotics",
	}
	for k, v := range fields {
		require.NoError(t, modal.Set(k, v))
	}
	require.NoError(t, modal.SelectImage("cover.png", bytes.NewReader(pngImage)))

	created, err := modal.Submit(ctx)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Drone race", created.Title)
	assert.NotEmpty(t, created.ImageURL)
	assert.False(t, modal.IsOpen())

	found, ok := e.dash.Events.Find(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Gymnasium", found.Location)

	modal.OpenEdit(found)
	require.NoError(t, modal.Set("location", "Stadium"))
	updated, err := modal.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Stadium", updated.Location)

	require.NoError(t, e.dash.Events.Delete(ctx, created.ID))
	_, ok = e.dash.Events.Find(created.ID)
	assert.False(t, ok)

	require.NoError(t, e.dash.Events.FetchAll(ctx))
	assert.Len(t, e.dash.Events.Items(), 2)
}

func TestModeration(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	require.NoError(t, e.dash.Moderation.Accept(ctx, 4))
	last, ok := e.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "User accepted", last.Message)

	lina, ok := e.dash.Users.Find(4)
	require.True(t, ok)
	assert.Equal(t, types.UserAllowed, lina.Status)

	err := e.dash.Moderation.Reject(ctx, 2, "  ")
	require.ErrorIs(t, err, stores.ErrReasonRequired)

	require.NoError(t, e.dash.Moderation.Reject(ctx, 2, "duplicate account"))
	amina, err := e.dash.Users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, types.UserDenied, amina.Status)
	assert.Equal(t, "duplicate account", amina.RejectionReason)

	require.NoError(t, e.dash.Moderation.Delete(ctx, 5))
	_, ok = e.dash.Users.Find(5)
	assert.False(t, ok)

	counts := services.CountStatuses(e.dash.Users.Items())
	assert.Equal(t, 4, counts.All)
	assert.Equal(t, 1, counts.Denied)
}

func TestPresence(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	board, err := e.dash.Presence.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, board.Registrations, 2)
	assert.Empty(t, board.Present)
	assert.Len(t, board.Pending(), 2)

	board, err = e.dash.Presence.MarkPresent(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, board.Present, 1)
	assert.Equal(t, 2, board.Present[0].UserID)
	assert.Len(t, board.Pending(), 1)

	msg, err := e.dash.Attendance.CloseEvent(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, msg, "1 marked absent")

	board, err = e.dash.Presence.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, board.Absent, 1)
	assert.Empty(t, board.Pending())
	stats := board.Stats()
	assert.InDelta(t, 50.0, stats.PresentPercent, 0.001)

	record, err := e.dash.Attendance.MarkByQR(ctx, 2, "cellhub:user:3")
	require.NoError(t, err)
	assert.Equal(t, 3, record.UserID)

	summary, err := e.dash.Overview.EventAttendance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 50, summary.Rate)
}

func TestDocumentsBundleAndArchive(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	_, err := e.dash.Bundle.Build(ctx)
	require.Error(t, err)

	for _, doc := range []struct{ title, name, body string }{
		{"Minutes", "minutes.txt", "meeting minutes"},
		{"Budget", "budget.csv", "item,amount\nsolder,12\n"},
	} {
		form := &forms.DocumentForm{Title: doc.title, EventID: 1}
		require.NoError(t, form.SelectFile(doc.name, strings.NewReader(doc.body), 1<<20))
		require.NoError(t, form.Validate())
		uploaded, err := e.dash.Documents.Upload(ctx, form.Multipart())
		require.NoError(t, err)
		assert.Equal(t, doc.title, uploaded.Title)
	}

	docs := e.dash.Documents.Items()
	require.Len(t, docs, 2)
	blob, err := e.dash.Documents.Open(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "meeting minutes", string(blob.Data))
	assert.Same(t, blob, e.dash.Documents.Current())
	e.dash.Documents.CloseDocument()
	assert.Nil(t, e.dash.Documents.Current())

	archiver, err := e.dash.Archiver(ctx)
	require.NoError(t, err)
	key, bundle, err := archiver.Archive(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "bundles/"))

	manifest, files, err := services.ReadBundle(bundle.Data)
	require.NoError(t, err)
	require.Len(t, manifest.Documents, 2)
	assert.Len(t, files, 2)

	require.NoError(t, e.dash.Events.FetchAll(ctx))
	rows := services.EnrichDocuments(e.dash.Documents.Items(), e.dash.Events.Items())
	assert.Equal(t, "Robotics kickoff", rows[0].EventTitle)
}

func TestStatistics(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	require.NoError(t, e.dash.Overview.Load(ctx))
	stats := e.dash.Overview.Stats()

	assert.Equal(t, 5, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 1, stats.UpcomingEvents)
	assert.Equal(t, 2, stats.TotalCellules)
	assert.Equal(t, 1, stats.TotalAnnouncements)
	assert.Zero(t, stats.TotalDocuments)
	require.Len(t, stats.NextEvents, 1)
	assert.Equal(t, "Robotics kickoff", stats.NextEvents[0].Title)
}
