package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerificationResent is the confirmation shown after a verification email
// is sent again.
const VerificationResent = "Verification email has been resent to your email address."

// SignInResult is an opened session and its bearer token.
type SignInResult struct {
	Token   string
	Session *Session
}

// PhotoInput is either raw image bytes or a remote image to re-host.
type PhotoInput struct {
	Name      string
	Data      []byte
	SourceURL string
}

// Service implements the account flows of the storefront.
type Service struct {
	provider Provider
	sessions SessionStore
	tokens   *TokenIssuer
	images   ImageUploader
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates an auth Service. images may be nil, which disables
// photo updates.
func NewService(provider Provider, sessions SessionStore, tokens *TokenIssuer, images ImageUploader, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		provider: provider,
		sessions: sessions,
		tokens:   tokens,
		images:   images,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SignUp creates an account with a display name and sends the verification
// email. No session is opened: the account cannot sign in until verified.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	cred, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, describe(err)
	}
	u, err := s.provider.UpdateProfile(ctx, cred.IDToken, ProfileUpdate{DisplayName: &name})
	if err != nil {
		return nil, describe(err)
	}
	if err := s.provider.SendEmailVerification(ctx, cred.IDToken); err != nil {
		return nil, describe(err)
	}

	zctx.From(ctx).Info("Account created", zap.String("uid", u.UID))
	return u, nil
}

// SignIn authenticates with email and password. Unverified accounts are
// refused with ErrEmailNotVerified.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	cred, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, describe(err)
	}
	if !cred.User.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return s.open(ctx, cred)
}

// ResendVerification re-authenticates and sends the verification email again.
// It returns the confirmation message.
func (s *Service) ResendVerification(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingFields
	}

	cred, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return "", describe(err)
	}
	if err := s.provider.SendEmailVerification(ctx, cred.IDToken); err != nil {
		return "", describe(err)
	}
	return VerificationResent, nil
}

// SignInFederated signs in with a Google or Facebook token. Federated
// accounts count as verified.
func (s *Service) SignInFederated(ctx context.Context, provider, token string) (*SignInResult, error) {
	p, ok := ParseFederatedProvider(provider)
	if !ok {
		return nil, ErrInvalidProvider
	}
	if strings.TrimSpace(token) == "" {
		return nil, &Error{Code: CodeInvalidCredential, Message: Message(CodeInvalidCredential, "")}
	}

	cred, err := s.provider.SignInWithIdP(ctx, FederatedCredential{Provider: p, Token: token})
	if err != nil {
		return nil, describe(err)
	}
	cred.User.EmailVerified = true
	return s.open(ctx, cred)
}

// SendPasswordReset sends a reset link to email.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return ErrInvalidResetEmail
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return describe(err)
	}
	return nil
}

// Authenticate resolves a bearer token to its live session.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "get session")
	}
	if sess.User.UID != claims.UID {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// SignOut revokes the session.
func (s *Service) SignOut(ctx context.Context, sess *Session) error {
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// CurrentUser refreshes the session's user from the provider.
func (s *Service) CurrentUser(ctx context.Context, sess *Session) (*User, error) {
	u, err := s.provider.Lookup(ctx, sess.IDToken)
	if err != nil {
		return nil, describe(err)
	}
	if err := s.remember(ctx, sess, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePhoto hosts the image and stores its URL on the profile.
func (s *Service) UpdatePhoto(ctx context.Context, sess *Session, in PhotoInput) (*User, error) {
	if s.images == nil {
		return nil, ErrPhotoUploadUnavailable
	}

	data := in.Data
	if len(data) == 0 {
		if in.SourceURL == "" {
			return nil, ErrMissingFields
		}
		fetched, err := s.images.Fetch(ctx, in.SourceURL)
		if err != nil {
			return nil, errors.Wrap(err, "fetch image")
		}
		data = fetched
	}

	name := in.Name
	if name == "" {
		name = "profile_" + sess.User.UID
	}
	url, err := s.images.Upload(ctx, name, data)
	if err != nil {
		return nil, errors.Wrap(err, "upload image")
	}

	u, err := s.provider.UpdateProfile(ctx, sess.IDToken, ProfileUpdate{PhotoURL: &url})
	if err != nil {
		return nil, describe(err)
	}
	if err := s.remember(ctx, sess, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) open(ctx context.Context, cred *Credential) (*SignInResult, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		User:      cred.User,
		IDToken:   cred.IDToken,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "save session")
	}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Debug("Session opened", zap.String("uid", sess.User.UID))
	return &SignInResult{Token: token, Session: sess}, nil
}

func (s *Service) remember(ctx context.Context, sess *Session, u *User) error {
	// Federated sessions stay verified even if the provider reports otherwise.
	verified := sess.User.EmailVerified
	sess.User = *u
	sess.User.EmailVerified = verified || u.EmailVerified
	if err := s.sessions.Refresh(ctx, sess); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrUnauthenticated
		}
		return errors.Wrap(err, "refresh session")
	}
	return nil
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
