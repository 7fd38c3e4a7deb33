package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can read from an access token without
// the signing key.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// InspectToken decodes the claims of a JWT access token. The signature
// is not verified; the server remains the authority.
func InspectToken(token string) (TokenInfo, bool) {
	if token == "" {
		return TokenInfo{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}
	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}
