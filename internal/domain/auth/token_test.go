package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        "sess-1",
		User:      User{UID: "uid-1"},
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte(strings.Repeat("s", 32)), "storefront")
	require.NoError(t, err)

	now := time.Now()
	tok, err := issuer.Issue(testSession(now, time.Hour))
	require.NoError(t, err)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "uid-1", claims.UID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	secret := []byte(strings.Repeat("s", 32))
	issuer, err := NewTokenIssuer(secret, "storefront")
	require.NoError(t, err)

	now := time.Now()
	expired, err := issuer.Issue(testSession(now.Add(-2*time.Hour), time.Hour))
	require.NoError(t, err)

	other, err := NewTokenIssuer([]byte(strings.Repeat("x", 32)), "storefront")
	require.NoError(t, err)
	foreign, err := other.Issue(testSession(now, time.Hour))
	require.NoError(t, err)

	wrongIss, err := NewTokenIssuer(secret, "elsewhere")
	require.NoError(t, err)
	misissued, err := wrongIss.Issue(testSession(now, time.Hour))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"wrong issuer": misissued,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(tok)
			require.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestNewTokenIssuer_ShortSecret(t *testing.T) {
	_, err := NewTokenIssuer([]byte("short"), "storefront")
	require.Error(t, err)
}
