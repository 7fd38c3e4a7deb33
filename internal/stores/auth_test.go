package stores

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/session"
	"github.com/cellhub/admin/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T, api *fakeAPI) (*AuthStore, *apiclient.Client, *session.Store) {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	sess := session.NewMemory()
	client, err := apiclient.New(ts.URL, sess)
	require.NoError(t, err)
	store := NewAuthStore(Deps{API: client}, client, sess)
	client.OnUnauthorized(store.HandleUnauthorized)
	return store, client, sess
}

func TestLoginAdmin(t *testing.T) {
	api := newFakeAPI()
	api.json(http.MethodPost, "/login", http.StatusOK, map[string]any{
		"user":        types.User{ID: 1, Email: "admin@x.io", RoleID: types.RoleAdmin},
		"accessToken": "tok-1",
	})
	store, client, sess := newAuthFixture(t, api)

	user, err := store.Login(context.Background(), " admin@x.io ", "secret")
	require.NoError(t, err)

	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "tok-1", sess.Token())
	assert.Equal(t, "tok-1", store.AccessToken())
	require.NotNil(t, sess.User())
	assert.Equal(t, "admin@x.io", sess.User().Email)
	assert.Equal(t, apiclient.StateAuthorized, client.State())
	assert.NotNil(t, store.User())
}

func TestLoginPresidentAllowed(t *testing.T) {
	api := newFakeAPI()
	api.json(http.MethodPost, "/login", http.StatusOK, map[string]any{
		"user":        types.User{ID: 2, RoleID: types.RolePresident},
		"accessToken": "tok-2",
	})
	store, _, _ := newAuthFixture(t, api)

	_, err := store.Login(context.Background(), "p@x.io", "secret")
	require.NoError(t, err)
}

func TestLoginRejectsMember(t *testing.T) {
	api := newFakeAPI()
	api.on(http.MethodPost, "/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "member-refresh", Path: "/", HttpOnly: true})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":        types.User{ID: 3, RoleID: types.RoleMember},
			"accessToken": "tok-3",
		})
	})
	var refreshCookie string
	api.on(http.MethodGet, "/refresh", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("refreshToken"); err == nil {
			refreshCookie = c.Value
		}
		_, _ = w.Write([]byte(`{}`))
	})
	store, client, sess := newAuthFixture(t, api)

	_, err := store.Login(context.Background(), "m@x.io", "secret")
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Empty(t, sess.Token())
	assert.Empty(t, sess.Cookies())

	_, _ = client.Get(context.Background(), "/refresh")
	assert.Empty(t, refreshCookie)
	assert.Nil(t, sess.User())
	assert.Nil(t, store.User())
	assert.Equal(t, apiclient.StateUnauthorized, client.State())
	assert.Equal(t, ErrNotAdmin.Error(), store.Err())
}

func TestLoginBadCredentialsDoesNotRefresh(t *testing.T) {
	api := newFakeAPI()
	api.json(http.MethodPost, "/login", http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	store, _, _ := newAuthFixture(t, api)

	_, err := store.Login(context.Background(), "a@x.io", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", store.Err())
	assert.Zero(t, api.count(http.MethodGet, "/refresh"))
}

func TestLogout(t *testing.T) {
	api := newFakeAPI()
	api.json(http.MethodPost, "/login", http.StatusOK, map[string]any{
		"user":        types.User{ID: 1, RoleID: types.RoleAdmin},
		"accessToken": "tok-1",
	})
	store, client, sess := newAuthFixture(t, api)
	_, err := store.Login(context.Background(), "a@x.io", "secret")
	require.NoError(t, err)

	require.NoError(t, store.Logout())
	assert.Nil(t, store.User())
	assert.Empty(t, sess.Token())
	assert.Equal(t, apiclient.StateUnauthorized, client.State())
}

func TestRefreshFailureLogsOut(t *testing.T) {
	api := newFakeAPI()
	api.json(http.MethodPost, "/login", http.StatusOK, map[string]any{
		"user":        types.User{ID: 1, RoleID: types.RoleAdmin},
		"accessToken": "tok-1",
	})
	api.json(http.MethodGet, "/API/users", http.StatusForbidden, map[string]string{"message": "Invalid token"})
	api.json(http.MethodGet, "/refresh", http.StatusUnauthorized, map[string]string{"message": "no cookie"})
	store, client, _ := newAuthFixture(t, api)
	_, err := store.Login(context.Background(), "a@x.io", "secret")
	require.NoError(t, err)

	users := NewUserStore(Deps{API: client})
	err = users.FetchAll(context.Background())

	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.Nil(t, store.User())
	assert.Equal(t, "Invalid token", users.Err())
}

func TestThemeToggle(t *testing.T) {
	sess := session.NewMemory()
	theme := NewThemeStore(sess)
	assert.Equal(t, types.ThemeLight, theme.Theme())

	next, err := theme.Toggle()
	require.NoError(t, err)
	assert.Equal(t, types.ThemeDark, next)
	assert.Equal(t, types.ThemeDark, sess.Theme())

	next, err = theme.Toggle()
	require.NoError(t, err)
	assert.Equal(t, types.ThemeLight, next)
}
