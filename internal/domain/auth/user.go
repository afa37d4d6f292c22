// Package auth implements account flows on top of an external identity
// provider and keeps server-side sessions for signed-in users.
package auth

import (
	"context"
	"strings"
)

// User is the identity provider's view of an account.
type User struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// Owner returns the bag and favorites key of the user.
func (u *User) Owner() string {
	return "user:" + u.UID
}

// Credential is a successful provider sign-in.
type Credential struct {
	User    User
	IDToken string
}

// FederatedProvider names a third-party sign-in method.
type FederatedProvider string

const (
	ProviderGoogle   FederatedProvider = "google"
	ProviderFacebook FederatedProvider = "facebook"
)

// ParseFederatedProvider parses a provider name case-insensitively.
func ParseFederatedProvider(s string) (FederatedProvider, bool) {
	switch p := FederatedProvider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGoogle, ProviderFacebook:
		return p, true
	default:
		return "", false
	}
}

// FederatedCredential is the token a client obtained from a third-party
// provider: a Google ID token or a Facebook access token.
type FederatedCredential struct {
	Provider FederatedProvider
	Token    string
}

// ProfileUpdate changes profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// Provider is the external identity provider.
//
// Implementations report failures as *ProviderError.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Credential, error)
	SignIn(ctx context.Context, email, password string) (*Credential, error)
	SignInWithIdP(ctx context.Context, c FederatedCredential) (*Credential, error)
	Lookup(ctx context.Context, idToken string) (*User, error)
	SendEmailVerification(ctx context.Context, idToken string) error
	SendPasswordReset(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, idToken string, u ProfileUpdate) (*User, error)
}

// ImageUploader hosts profile photos.
type ImageUploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}
