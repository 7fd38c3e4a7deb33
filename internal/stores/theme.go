package stores

import (
	"sync"

	"github.com/cellhub/admin/types"
)

// ThemePrefs persists the theme.
type ThemePrefs interface {
	Theme() types.Theme
	SetTheme(theme types.Theme) error
}

type ThemeStore struct {
	mu    sync.Mutex
	prefs ThemePrefs
}

func NewThemeStore(prefs ThemePrefs) *ThemeStore {
	return &ThemeStore{prefs: prefs}
}

func (s *ThemeStore) Theme() types.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Theme()
}

// Toggle switches between light and dark and returns the new theme.
func (s *ThemeStore) Toggle() (types.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := types.ThemeDark
	if s.prefs.Theme() == types.ThemeDark {
		next = types.ThemeLight
	}
	if err := s.prefs.SetTheme(next); err != nil {
		return s.prefs.Theme(), err
	}
	return next, nil
}
