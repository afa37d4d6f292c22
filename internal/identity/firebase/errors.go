package firebase

import (
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
)

var codes = map[string]string{
	"EMAIL_EXISTS":                auth.CodeEmailAlreadyInUse,
	"EMAIL_NOT_FOUND":             auth.CodeUserNotFound,
	"USER_NOT_FOUND":              auth.CodeUserNotFound,
	"INVALID_PASSWORD":            auth.CodeWrongPassword,
	"INVALID_EMAIL":               auth.CodeInvalidEmail,
	"MISSING_EMAIL":               auth.CodeInvalidEmail,
	"WEAK_PASSWORD":               auth.CodeWeakPassword,
	"USER_DISABLED":               auth.CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": auth.CodeTooManyRequests,
	"INVALID_LOGIN_CREDENTIALS":   auth.CodeInvalidCredential,
	"INVALID_IDP_RESPONSE":        auth.CodeInvalidCredential,
	"INVALID_ID_TOKEN":            auth.CodeInvalidCredential,
	"TOKEN_EXPIRED":               auth.CodeInvalidCredential,
}

// decodeError turns an Identity Toolkit error body into *auth.ProviderError.
// Messages look like "WEAK_PASSWORD : Password should be at least 6 characters".
func decodeError(body []byte, status string) error {
	raw := status
	_ = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "error" || d.Next() != jx.Object {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "message" || d.Next() != jx.String {
				return d.Skip()
			}
			v, err := d.Str()
			if err == nil && v != "" {
				raw = v
			}
			return err
		})
	})

	name, _, _ := strings.Cut(raw, " : ")
	name = strings.TrimSpace(name)
	code, ok := codes[name]
	switch {
	case ok:
	case name == "" || strings.ContainsAny(name, " \t"):
		code = "auth/internal-error"
	default:
		code = "auth/" + strings.ReplaceAll(strings.ToLower(name), "_", "-")
	}
	return &auth.ProviderError{Code: code, Raw: raw}
}
