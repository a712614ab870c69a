package portal

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds the claims of a bearer token that are useful for display.
// The signature is not verified, the account service stays the only
// authority on whether a token is valid.
type TokenInfo struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Remaining returns the time left before expiry, zero when unknown or expired.
func (t TokenInfo) Remaining(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() || t.Expired(now) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

type inspectClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// InspectToken decodes a JWT bearer token without verifying it. Opaque
// tokens fail with ErrOpaqueToken.
func InspectToken(token string) (TokenInfo, error) {
	claims := &inspectClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, derive(ErrOpaqueToken, "", err, nil)
	}

	info := TokenInfo{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
