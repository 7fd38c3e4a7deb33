package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRefreshPath = "/refresh"
	maxResponseBytes   = 64 << 20
	headerRequestID    = "X-Request-ID"
)

// TokenStore persists the bearer token between requests and runs.
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// CookieStore is optionally implemented by a TokenStore that can also
// persist the refresh cookie.
type CookieStore interface {
	Cookies() []types.CookieData
	SetCookies(cookies []types.CookieData) error
}

// AuthState is the position of the client in the token lifecycle.
type AuthState int

const (
	// StateAuthorized means requests go out with the current token.
	StateAuthorized AuthState = iota
	// StateRefreshing means a refresh call is in flight.
	StateRefreshing
	// StateUnauthorized means the last refresh failed and the session
	// was cleared. A login moves the client back to authorized.
	StateUnauthorized
)

func (s AuthState) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateRefreshing:
		return "refreshing"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Client talks to the dashboard API. Every request carries the stored
// bearer token; an authorization failure triggers at most one refresh
// and one replay of the original request.
type Client struct {
	baseURL        *url.URL
	refreshURL     *url.URL
	http           *http.Client
	tokens         TokenStore
	log            logger.Logger
	timeout        time.Duration
	authFailures   map[int]bool
	onUnauthorized func()

	mu      sync.Mutex
	state   AuthState
	refresh singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client is
// copied, and the copy gets a cookie jar if it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithTimeout bounds every individual attempt. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithOnUnauthorized registers the hook fired when a refresh fails.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithAuthFailureStatuses sets which response codes mean "token no
// longer valid". Defaults to 401 and 403.
func WithAuthFailureStatuses(codes ...int) Option {
	return func(c *Client) {
		c.authFailures = make(map[int]bool, len(codes))
		for _, code := range codes {
			c.authFailures[code] = true
		}
	}
}

// New constructs a Client for the API at baseURL.
func New(baseURL string, tokens TokenStore, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("api base url is required")
	}
	if tokens == nil {
		return nil, errors.New("token store is required")
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid api base url")
	}

	c := &Client{
		baseURL:      base,
		refreshURL:   base.JoinPath(defaultRefreshPath),
		tokens:       tokens,
		log:          logger.Nop{},
		authFailures: map[int]bool{http.StatusUnauthorized: true, http.StatusForbidden: true},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{}
	} else {
		hc := *c.http
		c.http = &hc
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "create cookie jar")
		}
		c.http.Jar = jar
	}
	c.loadCookies()

	if tokens.Token() == "" {
		c.state = StateUnauthorized
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// State returns the current auth state.
func (c *Client) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Token returns the current access token, or "".
func (c *Client) Token() string {
	return c.tokens.Token()
}

// Authorize stores a freshly issued token (after login).
func (c *Client) Authorize(token string) error {
	if err := c.tokens.SetToken(token); err != nil {
		return errors.Wrap(err, "persist access token")
	}
	c.setState(StateAuthorized)
	return nil
}

// Deauthorize forgets the token and the refresh cookie (after logout
// or a refused login).
func (c *Client) Deauthorize() error {
	c.setState(StateUnauthorized)
	c.expireCookies()
	if err := c.tokens.Clear(); err != nil {
		return errors.Wrap(err, "clear access token")
	}
	return nil
}

// OnUnauthorized replaces the refresh failure hook.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Request describes one API call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Payload Payload

	// SkipRefresh returns authorization failures as is. Used for
	// credential calls such as login where a 401 means bad input.
	SkipRefresh bool
}

// Response is a fully read API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do sends the request. An authorization failure is answered with a
// single refresh followed by a single replay; the replay's outcome is
// returned as is, whatever its status.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var body []byte
	var contentType string
	if req.Payload != nil {
		var err error
		body, contentType, err = req.Payload.Encode()
		if err != nil {
			return nil, errors.Wrap(err, "encode request payload")
		}
	}

	usedToken := c.tokens.Token()
	resp, err := c.attempt(ctx, req, body, contentType, usedToken)
	if err != nil {
		return nil, err
	}
	if req.SkipRefresh || !c.authFailures[resp.Status] {
		return checkStatus(resp)
	}

	token, err := c.refreshToken(ctx, usedToken)
	if isContextError(err) {
		return nil, errors.Wrap(err, "refresh access token")
	}
	if err != nil {
		return nil, unauthorizedError(newAPIError(resp))
	}

	resp, err = c.attempt(ctx, req, body, contentType, token)
	if err != nil {
		return nil, err
	}
	return checkStatus(resp)
}

// Get is a convenience for GET requests.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// Send is a convenience for requests with a body.
func (c *Client) Send(ctx context.Context, method, path string, payload Payload) (*Response, error) {
	return c.Do(ctx, Request{Method: method, Path: path, Payload: payload})
}

// Delete is a convenience for DELETE requests.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) attempt(ctx context.Context, req Request, body []byte, contentType, token string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, uuid.NewString())
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return c.roundTrip(httpReq)
}

func (c *Client) roundTrip(httpReq *http.Request) (*Response, error) {
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", httpReq.Method, httpReq.URL.Path)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s %s response", httpReq.Method, httpReq.URL.Path)
	}
	if len(httpResp.Header.Values("Set-Cookie")) > 0 {
		c.saveCookies()
	}

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   data,
	}, nil
}

// refreshToken returns a token to replay with. When another request
// already rotated the token since usedToken was read, that token is
// reused; otherwise concurrent callers share one refresh call. The
// shared call outlives the caller that started it, and a refresh that
// was cut short by a deadline keeps the session.
func (c *Client) refreshToken(ctx context.Context, usedToken string) (string, error) {
	if current := c.tokens.Token(); current != "" && current != usedToken {
		return current, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.refresh.DoChan("refresh", func() (any, error) {
		c.setState(StateRefreshing)
		token, err := c.callRefresh(shared)
		if isContextError(err) {
			c.log.Warn("token refresh interrupted", err)
			c.setState(StateAuthorized)
			return "", err
		}
		if err != nil {
			c.log.Warn("token refresh failed", err)
			c.setState(StateUnauthorized)
			if clearErr := c.tokens.Clear(); clearErr != nil {
				c.log.Error("failed to clear session", clearErr)
			}
			c.fireUnauthorized()
			return "", err
		}
		if err := c.tokens.SetToken(token); err != nil {
			c.setState(StateUnauthorized)
			return "", errors.Wrap(err, "persist refreshed token")
		}
		c.setState(StateAuthorized)
		c.log.Debug("access token refreshed")
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) callRefresh(ctx context.Context) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.refreshURL.String(), nil)
	if err != nil {
		return "", errors.Wrap(err, "build refresh request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.roundTrip(httpReq)
	if err != nil {
		return "", err
	}
	if _, err := checkStatus(resp); err != nil {
		return "", err
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", errors.Wrap(err, "decode refresh response")
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", errors.New("refresh response has no access token")
	}
	return payload.AccessToken, nil
}

func (c *Client) setState(state AuthState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Client) fireUnauthorized() {
	c.mu.Lock()
	hook := c.onUnauthorized
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (c *Client) loadCookies() {
	store, ok := c.tokens.(CookieStore)
	if !ok {
		return
	}
	saved := store.Cookies()
	if len(saved) == 0 {
		return
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, data := range saved {
		cookies = append(cookies, &http.Cookie{Name: data.Name, Value: data.Value})
	}
	c.http.Jar.SetCookies(c.refreshURL, cookies)
}

func (c *Client) expireCookies() {
	current := c.http.Jar.Cookies(c.refreshURL)
	if len(current) == 0 {
		return
	}
	expired := make([]*http.Cookie, 0, len(current))
	for _, cookie := range current {
		expired = append(expired, &http.Cookie{Name: cookie.Name, Path: "/", MaxAge: -1})
	}
	c.http.Jar.SetCookies(c.refreshURL, expired)
}

func (c *Client) saveCookies() {
	store, ok := c.tokens.(CookieStore)
	if !ok {
		return
	}
	current := c.http.Jar.Cookies(c.refreshURL)
	saved := make([]types.CookieData, 0, len(current))
	for _, cookie := range current {
		saved = append(saved, types.CookieData{Name: cookie.Name, Value: cookie.Value})
	}
	if err := store.SetCookies(saved); err != nil {
		c.log.Error("failed to persist cookies", err)
	}
}

func checkStatus(resp *Response) (*Response, error) {
	if resp.Status >= 200 && resp.Status < 300 {
		return resp, nil
	}
	return nil, newAPIError(resp)
}
