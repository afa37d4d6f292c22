// Package memory is an in-process auth.Provider for local runs and tests.
// Passwords are bcrypt hashed. Emails are never actually sent: verification
// and reset requests are recorded and can be completed with Verify.
package memory

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/auth"
)

const minPasswordLen = 6

type account struct {
	user auth.User
	hash []byte
}

// Provider is an in-memory identity provider.
type Provider struct {
	mu         sync.Mutex
	autoVerify bool
	cost       int

	byEmail   map[string]*account
	byUID     map[string]*account
	tokens    map[string]string // id token -> uid
	federated map[string]string // provider:token -> uid

	verifications map[string]int
	resets        map[string]int
}

var _ auth.Provider = (*Provider)(nil)

// Option configures Provider.
type Option func(*Provider)

// WithAutoVerify marks new password accounts as verified.
func WithAutoVerify(v bool) Option {
	return func(p *Provider) { p.autoVerify = v }
}

// WithBcryptCost overrides the hashing cost.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.cost = cost }
}

// New creates an empty Provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		cost:          bcrypt.DefaultCost,
		byEmail:       make(map[string]*account),
		byUID:         make(map[string]*account),
		tokens:        make(map[string]string),
		federated:     make(map[string]string),
		verifications: make(map[string]int),
		resets:        make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func providerErr(code, raw string) error {
	return &auth.ProviderError{Code: code, Raw: raw}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) SignUp(_ context.Context, email, password string) (*auth.Credential, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, providerErr(auth.CodeInvalidEmail, "INVALID_EMAIL")
	}
	if len(password) < minPasswordLen {
		return nil, providerErr(auth.CodeWeakPassword, "WEAK_PASSWORD : Password should be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return nil, providerErr(auth.CodeEmailAlreadyInUse, "EMAIL_EXISTS")
	}
	a := &account{
		user: auth.User{UID: uuid.NewString(), Email: email, EmailVerified: p.autoVerify},
		hash: hash,
	}
	p.byEmail[email] = a
	p.byUID[a.user.UID] = a
	return p.issue(a), nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (*auth.Credential, error) {
	email = normalizeEmail(email)

	p.mu.Lock()
	a, ok := p.byEmail[email]
	p.mu.Unlock()
	if !ok {
		return nil, providerErr(auth.CodeUserNotFound, "EMAIL_NOT_FOUND")
	}
	if a.hash == nil {
		return nil, providerErr(auth.CodeWrongPassword, "INVALID_PASSWORD")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return nil, providerErr(auth.CodeWrongPassword, "INVALID_PASSWORD")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issue(a), nil
}

// RegisterFederated makes token a valid credential for provider that signs
// in as the account with email, creating it on first use.
func (p *Provider) RegisterFederated(provider auth.FederatedProvider, token, email, displayName string) {
	email = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.byEmail[email]
	if !ok {
		a = &account{user: auth.User{UID: uuid.NewString(), Email: email}}
		p.byEmail[email] = a
		p.byUID[a.user.UID] = a
	}
	if a.user.DisplayName == "" {
		a.user.DisplayName = displayName
	}
	p.federated[string(provider)+":"+token] = a.user.UID
}

func (p *Provider) SignInWithIdP(_ context.Context, c auth.FederatedCredential) (*auth.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	uid, ok := p.federated[string(c.Provider)+":"+c.Token]
	if !ok {
		return nil, providerErr(auth.CodeInvalidCredential, "INVALID_IDP_RESPONSE")
	}
	a := p.byUID[uid]
	a.user.EmailVerified = true
	return p.issue(a), nil
}

func (p *Provider) Lookup(_ context.Context, idToken string) (*auth.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, err := p.byToken(idToken)
	if err != nil {
		return nil, err
	}
	u := a.user
	return &u, nil
}

func (p *Provider) SendEmailVerification(_ context.Context, idToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, err := p.byToken(idToken)
	if err != nil {
		return err
	}
	p.verifications[a.user.Email]++
	return nil
}

func (p *Provider) SendPasswordReset(_ context.Context, email string) error {
	email = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; !ok {
		return providerErr(auth.CodeUserNotFound, "EMAIL_NOT_FOUND")
	}
	p.resets[email]++
	return nil
}

func (p *Provider) UpdateProfile(_ context.Context, idToken string, u auth.ProfileUpdate) (*auth.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, err := p.byToken(idToken)
	if err != nil {
		return nil, err
	}
	if u.DisplayName != nil {
		a.user.DisplayName = *u.DisplayName
	}
	if u.PhotoURL != nil {
		a.user.PhotoURL = *u.PhotoURL
	}
	out := a.user
	return &out, nil
}

// Verify confirms the email address, as following the emailed link would.
func (p *Provider) Verify(email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byEmail[normalizeEmail(email)]
	if !ok {
		return providerErr(auth.CodeUserNotFound, "EMAIL_NOT_FOUND")
	}
	a.user.EmailVerified = true
	return nil
}

// Verifications returns how many verification emails were requested for email.
func (p *Provider) Verifications(email string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verifications[normalizeEmail(email)]
}

// Resets returns how many password resets were requested for email.
func (p *Provider) Resets(email string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets[normalizeEmail(email)]
}

// issue must be called with p.mu held.
func (p *Provider) issue(a *account) *auth.Credential {
	tok := uuid.NewString()
	p.tokens[tok] = a.user.UID
	return &auth.Credential{User: a.user, IDToken: tok}
}

// byToken must be called with p.mu held.
func (p *Provider) byToken(idToken string) (*account, error) {
	uid, ok := p.tokens[idToken]
	if !ok {
		return nil, providerErr(auth.CodeInvalidCredential, "INVALID_ID_TOKEN")
	}
	a, ok := p.byUID[uid]
	if !ok {
		return nil, providerErr(auth.CodeUserNotFound, "USER_NOT_FOUND")
	}
	return a, nil
}
