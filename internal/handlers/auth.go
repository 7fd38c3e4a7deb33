package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/store"
	"github.com/cellhub/admin/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	// RefreshCookie is the httpOnly cookie carrying the refresh token.
	RefreshCookie = "refreshToken"

	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// AuthOptions tune token lifetimes. Zero values use the defaults.
type AuthOptions struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// AuthHandler issues access tokens and rotates refresh cookies.
type AuthHandler struct {
	users      *store.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        logger.Logger
}

func NewAuthHandler(users *store.UserRepository, jwtSecret string, log logger.Logger, opts AuthOptions) *AuthHandler {
	h := &AuthHandler{
		users:      users,
		secret:     []byte(jwtSecret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
		log:        log,
	}
	if h.accessTTL <= 0 {
		h.accessTTL = defaultAccessTTL
	}
	if h.refreshTTL <= 0 {
		h.refreshTTL = defaultRefreshTTL
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.log == nil {
		h.log = logger.Nop{}
	}
	return h
}

// AuthRouter registers the public auth routes.
func AuthRouter(r chi.Router, h *AuthHandler) {
	r.Post("/login", h.Login)
	r.Get("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
}

// RequireAuth rejects requests without a bearer token with 401 and
// requests with an invalid or expired one with 403. The token subject
// is put in the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		subject, err := h.parseTokenSubject(tokenString, audienceAccess)
		if err != nil {
			writeError(w, http.StatusForbidden, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin lets through administrators and presidents only. It
// must run after RequireAuth.
func (h *AuthHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := h.users.Get(r.Context(), userID)
		if err != nil || !isAdmin(user) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAdmin(user types.User) bool {
	return user.RoleID == types.RoleAdmin || user.RoleID == types.RolePresident
}

// Login verifies credentials, returns the user with an access token and
// sets the refresh cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	hash, err := h.users.PasswordHash(r.Context(), user.ID)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if user.Status != types.UserAllowed {
		writeError(w, http.StatusForbidden, "account is not active")
		return
	}

	accessToken, err := h.issueTokens(w, user.ID)
	if err != nil {
		h.log.Error("issue token", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{User: user, AccessToken: accessToken})
}

// Refresh exchanges the refresh cookie for a new access token and
// rotates the cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}
	subject, err := h.parseTokenSubject(cookie.Value, audienceRefresh)
	if err != nil {
		h.clearCookie(w)
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	userID, err := strconv.Atoi(subject)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if _, err := h.users.Get(r.Context(), userID); err != nil {
		h.clearCookie(w)
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	accessToken, err := h.issueTokens(w, userID)
	if err != nil {
		h.log.Error("issue token", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// Logout drops the refresh cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User        types.User `json:"user"`
	AccessToken string     `json:"accessToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// issueTokens sets a fresh refresh cookie and returns an access token.
func (h *AuthHandler) issueTokens(w http.ResponseWriter, userID int) (string, error) {
	accessToken, err := h.issueToken(userID, audienceAccess, h.accessTTL)
	if err != nil {
		return "", err
	}
	refreshToken, err := h.issueToken(userID, audienceRefresh, h.refreshTTL)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    refreshToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  h.now().Add(h.refreshTTL),
	})
	return accessToken, nil
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (h *AuthHandler) issueToken(userID int, audience string, ttl time.Duration) (string, error) {
	now := h.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

func (h *AuthHandler) parseTokenSubject(tokenString, audience string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return h.secret, nil
	}, jwt.WithAudience(audience), jwt.WithTimeFunc(h.now))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
