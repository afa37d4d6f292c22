package firebase

import (
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
)

// account is the subset of Identity Toolkit account fields used here. The
// same shape is returned by sign-up, sign-in, lookup and update.
type account struct {
	LocalID       string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	IDToken       string
}

func (a *account) decode(d *jx.Decoder, key string) error {
	var err error
	switch key {
	case "localId":
		a.LocalID, err = d.Str()
	case "email":
		a.Email, err = d.Str()
	case "displayName":
		a.DisplayName, err = d.Str()
	case "photoUrl":
		a.PhotoURL, err = d.Str()
	case "emailVerified":
		a.EmailVerified, err = d.Bool()
	case "idToken":
		a.IDToken, err = d.Str()
	default:
		err = d.Skip()
	}
	return err
}

func (a *account) user() auth.User {
	return auth.User{
		UID:           a.LocalID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		EmailVerified: a.EmailVerified,
	}
}

func (a *account) credential() *auth.Credential {
	return &auth.Credential{User: a.user(), IDToken: a.IDToken}
}
