package auth

import (
	"github.com/go-faster/errors"
)

// Provider error codes.
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeUserDisabled      = "auth/user-disabled"
	CodeEmailNotVerified  = "auth/email-not-verified"
	CodeMissingFields     = "auth/missing-fields"
	CodeInvalidProvider   = "auth/invalid-provider"
	CodeSessionExpired    = "auth/session-expired"
)

var messages = map[string]string{
	CodeInvalidEmail:      "Invalid email address",
	CodeUserNotFound:      "No account found with this email",
	CodeWrongPassword:     "Invalid password",
	CodeEmailAlreadyInUse: "That email address is already in use",
	CodeWeakPassword:      "Password should be at least 6 characters",
	CodeTooManyRequests:   "Too many attempts, try again later",
	CodeInvalidCredential: "The supplied credential is invalid or has expired",
	CodeUserDisabled:      "This account has been disabled",
}

// Message returns the display message for a provider error code. Unknown
// codes fall back to raw.
func Message(code, raw string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return raw
}

// ProviderError is a failure reported by the identity provider.
type ProviderError struct {
	Code string
	// Raw is the provider's own message.
	Raw string
}

func (e *ProviderError) Error() string {
	return e.Code + ": " + e.Raw
}

// Error is a user-facing authentication failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrMissingFields is returned when a required form field is blank.
	ErrMissingFields = &Error{Code: CodeMissingFields, Message: "Please fill in all fields"}
	// ErrEmailNotVerified is returned by sign-in until the address is confirmed.
	ErrEmailNotVerified = &Error{Code: CodeEmailNotVerified, Message: "Please verify your email before logging in."}
	// ErrInvalidResetEmail is returned by password reset for malformed addresses.
	ErrInvalidResetEmail = &Error{Code: CodeInvalidEmail, Message: "Not a valid email address. Should be your@email.com"}
	// ErrInvalidProvider is returned for unsupported federated providers.
	ErrInvalidProvider = &Error{Code: CodeInvalidProvider, Message: "Unsupported sign-in provider"}
	// ErrUnauthenticated is returned when a session token is missing, invalid or revoked.
	ErrUnauthenticated = &Error{Code: CodeSessionExpired, Message: "Please sign in again"}
)

// ErrPhotoUploadUnavailable is returned by UpdatePhoto when no image host is
// configured.
var ErrPhotoUploadUnavailable = errors.New("profile photo upload is not available")

// describe converts provider failures into *Error. Other errors pass through.
func describe(err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return &Error{Code: pe.Code, Message: Message(pe.Code, pe.Raw)}
	}
	return err
}
