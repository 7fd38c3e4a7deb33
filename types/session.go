package types

// Theme is the dashboard color scheme preference.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Session is the client-side state persisted between runs: the cached
// access token, the logged in administrator, the refresh cookie and
// the theme preference.
type Session struct {
	AccessToken string       `json:"access_token,omitempty"`
	User        *User        `json:"user,omitempty"`
	Cookies     []CookieData `json:"cookies,omitempty"`
	Theme       Theme        `json:"theme,omitempty"`
}

// CookieData is the persisted subset of an HTTP cookie.
type CookieData struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
