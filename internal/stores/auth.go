package stores

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
)

// ErrNotAdmin is returned when valid credentials belong to an account
// that may not use the dashboard.
var ErrNotAdmin = errors.New("access denied: dashboard is reserved for administrators")

// Authorizer receives the token issued at login.
type Authorizer interface {
	Token() string
	Authorize(token string) error
	Deauthorize() error
}

// UserCache persists the logged in user.
type UserCache interface {
	User() *types.User
	SetUser(user *types.User) error
}

// AuthStore logs administrators in and out.
type AuthStore struct {
	deps  Deps
	auth  Authorizer
	cache UserCache

	mu      sync.RWMutex
	user    *types.User
	loading bool
	err     string
}

func NewAuthStore(deps Deps, auth Authorizer, cache UserCache) *AuthStore {
	s := &AuthStore{deps: deps.withDefaults(), auth: auth, cache: cache}
	if cache != nil {
		s.user = cache.User()
	}
	return s
}

type loginResponse struct {
	User        *types.User `json:"user"`
	AccessToken string      `json:"accessToken"`
}

// Login checks the credentials. Only administrators and presidents are
// let in; for any other role nothing is stored and ErrNotAdmin is
// returned.
func (s *AuthStore) Login(ctx context.Context, email, password string) (types.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	req := apiclient.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Payload: apiclient.JSON(map[string]string{
			"email":    strings.TrimSpace(email),
			"password": password,
		}),
		SkipRefresh: true,
	}
	resp, err := s.deps.API.Do(ctx, req)
	if err != nil {
		return types.User{}, s.fail(err, apiclient.MessageOf(err, "Login failed"))
	}

	var payload loginResponse
	if _, err := decodeInto(resp.Body, &payload); err != nil {
		return types.User{}, s.fail(err, "Login failed")
	}
	if payload.User == nil || payload.AccessToken == "" {
		return types.User{}, s.fail(errors.New("login response is incomplete"), "Login failed")
	}
	if !payload.User.IsAdmin() {
		if err := s.auth.Deauthorize(); err != nil {
			s.deps.Logger.Warn("failed to drop refused session", err)
		}
		return types.User{}, s.fail(ErrNotAdmin, ErrNotAdmin.Error())
	}

	if err := s.auth.Authorize(payload.AccessToken); err != nil {
		return types.User{}, s.fail(err, "Login failed")
	}
	if s.cache != nil {
		if err := s.cache.SetUser(payload.User); err != nil {
			s.deps.Logger.Warn("failed to cache user", err)
		}
	}

	s.mu.Lock()
	user := *payload.User
	s.user = &user
	s.err = ""
	s.mu.Unlock()
	s.deps.Logger.Info("logged in", user.Email)
	return user, nil
}

// Logout forgets the user and the token.
func (s *AuthStore) Logout() error {
	s.forget()
	return s.auth.Deauthorize()
}

// HandleUnauthorized is the client hook for a failed refresh. The
// client has already cleared the token.
func (s *AuthStore) HandleUnauthorized() {
	s.forget()
	s.deps.Logger.Warn("session expired, logged out")
}

func (s *AuthStore) forget() {
	s.mu.Lock()
	s.user = nil
	s.err = ""
	s.mu.Unlock()
}

// AccessToken returns the token of the current session, or "".
func (s *AuthStore) AccessToken() string {
	return s.auth.Token()
}

// User returns the logged in administrator, or nil.
func (s *AuthStore) User() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *AuthStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *AuthStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	if v {
		s.err = ""
	}
	s.mu.Unlock()
}

func (s *AuthStore) fail(err error, msg string) error {
	s.deps.Logger.Error(msg, err)
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	return err
}

func decodeInto[T any](body []byte, out *T) (bool, error) {
	v, present, err := apiclient.DecodeKey[T](body, "")
	if err != nil {
		return false, err
	}
	*out = v
	return present, nil
}
