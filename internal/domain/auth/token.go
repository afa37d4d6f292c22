package auth

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies session tokens. The token's jti is the
// session id.
type TokenIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates an HS256 TokenIssuer.
func NewTokenIssuer(secret []byte, issuer string) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	return &TokenIssuer{secret: secret, issuer: issuer, now: time.Now}, nil
}

// TokenClaims are the verified claims of a session token.
type TokenClaims struct {
	SessionID string
	UID       string
	ExpiresAt time.Time
}

// Issue signs a token for s.
func (t *TokenIssuer) Issue(s *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   s.User.UID,
		ID:        s.ID,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Parse verifies token and returns its claims. Any failure is ErrUnauthenticated.
func (t *TokenIssuer) Parse(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	); err != nil {
		return nil, ErrUnauthenticated
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return &TokenClaims{
		SessionID: claims.ID,
		UID:       claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
