package dashboard

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/notify"
	"github.com/cellhub/admin/internal/session"
	"github.com/cellhub/admin/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(apiURL string) config.Config {
	return config.Config{
		APIURL: apiURL,
		Limits: config.LimitsConfig{CreateImageMax: 64, EditImageMax: 32, CelluleImageMax: 16},
		Notify: config.NotifyConfig{Backend: "log"},
	}
}

func TestNewWiresStores(t *testing.T) {
	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	rec := &notify.Recorder{}
	d, err := New(context.Background(), testConfig("http://127.0.0.1:1"),
		WithSession(session.NewMemory()),
		WithLogger(logger.Nop{}),
		WithNotifier(rec),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	defer d.Close()

	assert.Same(t, rec, d.Notifier)
	assert.Equal(t, int64(64), d.Limits.CreateImageMax)
	assert.Equal(t, int64(32), d.Limits.EditImageMax)
	assert.False(t, d.LoggedIn())
	assert.Nil(t, d.Bus())

	modal := d.EventModal()
	modal.OpenCreate()
	assert.True(t, modal.IsOpen())
}

func TestFailedRefreshLogsOut(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"missing refresh token"}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid or expired token"}`))
	}))
	defer api.Close()

	sess := session.NewMemory()
	require.NoError(t, sess.SetToken("stale"))
	require.NoError(t, sess.SetUser(&types.User{ID: 1, RoleID: types.RoleAdmin}))

	var logs bytes.Buffer
	d, err := New(context.Background(), testConfig(api.URL), WithSession(sess), WithLogOutput(&logs))
	require.NoError(t, err)
	defer d.Close()
	require.True(t, d.LoggedIn())

	err = d.Users.FetchAll(context.Background())
	require.Error(t, err)

	assert.False(t, d.LoggedIn())
	assert.Nil(t, d.Auth.User())
	assert.Empty(t, sess.Token())
	assert.Contains(t, logs.String(), "session expired")
}

func TestArchiverUsesConfiguredBackend(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Archive = config.ArchiveConfig{Backend: "memory", Prefix: "bundles"}
	d, err := New(context.Background(), cfg, WithSession(session.NewMemory()), WithLogger(logger.Nop{}))
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Archiver(context.Background())
	require.NoError(t, err)
	archive := d.archive
	require.NotNil(t, archive)
	assert.Equal(t, "bundles/x.tar.gz", archive.Key("x.tar.gz"))

	_, err = d.Archiver(context.Background())
	require.NoError(t, err)
	assert.Same(t, archive, d.archive)

	cfg.Archive.Backend = "floppy"
	broken, err := New(context.Background(), cfg, WithSession(session.NewMemory()), WithLogger(logger.Nop{}))
	require.NoError(t, err)
	defer broken.Close()
	_, err = broken.Archiver(context.Background())
	assert.Error(t, err)
}

func TestMemoryBusIsClosed(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Notify = config.NotifyConfig{Backend: "memory", Channel: "cellhub.notifications"}
	d, err := New(context.Background(), cfg, WithSession(session.NewMemory()), WithLogger(logger.Nop{}))
	require.NoError(t, err)
	require.NotNil(t, d.Bus())

	require.NoError(t, d.Notifier.Notify(context.Background(), notify.Success("test", "ok")))
	d.Close()

	_, err = d.Bus().Publish(context.Background(), "cellhub.notifications", []byte("{}"), nil)
	assert.Error(t, err)
}

func TestMissingAPIURL(t *testing.T) {
	_, err := New(context.Background(), config.Config{}, WithSession(session.NewMemory()), WithLogger(logger.Nop{}))
	assert.Error(t, err)
}
