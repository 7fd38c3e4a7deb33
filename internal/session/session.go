package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
)

// Store holds the client-side session: access token, logged in user,
// refresh cookie and theme. A Store opened on a path persists every
// change to that file; a memory Store keeps it in process only.
type Store struct {
	path string

	mu      sync.RWMutex
	session types.Session
}

// NewMemory returns a Store that is never written to disk.
func NewMemory() *Store {
	return &Store{}
}

// Open loads the session file at path. A missing file yields an empty
// session.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read session file")
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.session); err != nil {
		return nil, errors.Wrapf(err, "decode session file %s", path)
	}
	return s, nil
}

// Path returns the backing file, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the session.
func (s *Store) Snapshot() types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.session
	if s.session.User != nil {
		user := *s.session.User
		out.User = &user
	}
	out.Cookies = append([]types.CookieData(nil), s.session.Cookies...)
	return out
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

func (s *Store) SetToken(token string) error {
	return s.update(func(sess *types.Session) {
		sess.AccessToken = token
	})
}

// Clear drops the credentials and the cached user. The theme survives.
func (s *Store) Clear() error {
	return s.update(func(sess *types.Session) {
		sess.AccessToken = ""
		sess.User = nil
		sess.Cookies = nil
	})
}

func (s *Store) User() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return nil
	}
	user := *s.session.User
	return &user
}

func (s *Store) SetUser(user *types.User) error {
	return s.update(func(sess *types.Session) {
		if user == nil {
			sess.User = nil
			return
		}
		u := *user
		sess.User = &u
	})
}

func (s *Store) Cookies() []types.CookieData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.CookieData(nil), s.session.Cookies...)
}

func (s *Store) SetCookies(cookies []types.CookieData) error {
	return s.update(func(sess *types.Session) {
		sess.Cookies = append([]types.CookieData(nil), cookies...)
	})
}

// Theme returns the stored theme, light when unset.
func (s *Store) Theme() types.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.Theme == "" {
		return types.ThemeLight
	}
	return s.session.Theme
}

func (s *Store) SetTheme(theme types.Theme) error {
	return s.update(func(sess *types.Session) {
		sess.Theme = theme
	})
}

func (s *Store) update(fn func(*types.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.session)
	return s.persist()
}

// persist writes through a temp file and rename so a crash never
// leaves a truncated session behind. Caller holds mu.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.session, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create session directory")
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp session file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write session file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "chmod session file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close session file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "replace session file")
	}
	return nil
}
