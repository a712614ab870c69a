package accountsim

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var errTokenRejected = goerrors.New("token rejected", goerrors.CategoryAuth).
	WithTextCode("SIM_TOKEN_REJECTED").
	WithCode(http.StatusUnauthorized)

// Claims are the bearer token claims minted by the simulator
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

type tokenIssuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func newTokenIssuer(signingKey []byte, issuer string, ttl time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		signingKey: signingKey,
		issuer:     issuer,
		ttl:        ttl,
		now:        now,
		revoked:    make(map[string]time.Time),
	}
}

func (t *tokenIssuer) mint(userID, role string) (string, error) {
	now := t.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}
	return signed, nil
}

func (t *tokenIssuer) validate(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.signingKey, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, goerrors.Wrap(err, errTokenRejected.Category, errTokenRejected.Message).
			WithTextCode(errTokenRejected.TextCode)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errTokenRejected
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, gone := t.revoked[claims.ID]; gone {
		return nil, errTokenRejected
	}
	return claims, nil
}

func (t *tokenIssuer) revoke(claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	expires := t.now().Add(t.ttl)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[claims.ID] = expires

	now := t.now()
	for id, exp := range t.revoked {
		if now.After(exp) {
			delete(t.revoked, id)
		}
	}
}
