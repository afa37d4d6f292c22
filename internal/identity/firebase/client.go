// Package firebase implements auth.Provider on the Firebase Identity Toolkit
// REST API.
package firebase

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
)

// DefaultEndpoint is the Identity Toolkit v1 base URL.
const DefaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

// Config configures Client.
type Config struct {
	APIKey   string
	Endpoint string
	// RequestURI is sent as requestUri on federated sign-in.
	RequestURI string
	Timeout    time.Duration
}

// Client is an auth.Provider backed by Firebase Authentication.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ auth.Provider = (*Client)(nil)

// New creates a Client. A nil httpClient uses http.DefaultTransport.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("firebase api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.RequestURI == "" {
		cfg.RequestURI = "http://localhost"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.Credential, error) {
	var r account
	if err := c.call(ctx, "accounts:signUp", func(e *jx.Encoder) {
		e.Field("email", func(e *jx.Encoder) { e.Str(email) })
		e.Field("password", func(e *jx.Encoder) { e.Str(password) })
		e.Field("returnSecureToken", func(e *jx.Encoder) { e.Bool(true) })
	}, r.decode); err != nil {
		return nil, err
	}
	return r.credential(), nil
}

// SignIn authenticates and then reads the account, since the password
// endpoint does not report the verification state.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Credential, error) {
	var r account
	if err := c.call(ctx, "accounts:signInWithPassword", func(e *jx.Encoder) {
		e.Field("email", func(e *jx.Encoder) { e.Str(email) })
		e.Field("password", func(e *jx.Encoder) { e.Str(password) })
		e.Field("returnSecureToken", func(e *jx.Encoder) { e.Bool(true) })
	}, r.decode); err != nil {
		return nil, err
	}

	u, err := c.Lookup(ctx, r.IDToken)
	if err != nil {
		return nil, err
	}
	return &auth.Credential{User: *u, IDToken: r.IDToken}, nil
}

func (c *Client) SignInWithIdP(ctx context.Context, fc auth.FederatedCredential) (*auth.Credential, error) {
	post := url.Values{}
	switch fc.Provider {
	case auth.ProviderGoogle:
		post.Set("id_token", fc.Token)
		post.Set("providerId", "google.com")
	case auth.ProviderFacebook:
		post.Set("access_token", fc.Token)
		post.Set("providerId", "facebook.com")
	default:
		return nil, auth.ErrInvalidProvider
	}

	var r account
	if err := c.call(ctx, "accounts:signInWithIdp", func(e *jx.Encoder) {
		e.Field("postBody", func(e *jx.Encoder) { e.Str(post.Encode()) })
		e.Field("requestUri", func(e *jx.Encoder) { e.Str(c.cfg.RequestURI) })
		e.Field("returnIdpCredential", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("returnSecureToken", func(e *jx.Encoder) { e.Bool(true) })
	}, r.decode); err != nil {
		return nil, err
	}
	return r.credential(), nil
}

func (c *Client) Lookup(ctx context.Context, idToken string) (*auth.User, error) {
	var users []account
	if err := c.call(ctx, "accounts:lookup", func(e *jx.Encoder) {
		e.Field("idToken", func(e *jx.Encoder) { e.Str(idToken) })
	}, func(d *jx.Decoder, key string) error {
		if key != "users" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var a account
			if err := d.Obj(a.decode); err != nil {
				return err
			}
			users = append(users, a)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &auth.ProviderError{Code: auth.CodeUserNotFound, Raw: "USER_NOT_FOUND"}
	}
	u := users[0].user()
	return &u, nil
}

func (c *Client) SendEmailVerification(ctx context.Context, idToken string) error {
	return c.call(ctx, "accounts:sendOobCode", func(e *jx.Encoder) {
		e.Field("requestType", func(e *jx.Encoder) { e.Str("VERIFY_EMAIL") })
		e.Field("idToken", func(e *jx.Encoder) { e.Str(idToken) })
	}, skipField)
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.call(ctx, "accounts:sendOobCode", func(e *jx.Encoder) {
		e.Field("requestType", func(e *jx.Encoder) { e.Str("PASSWORD_RESET") })
		e.Field("email", func(e *jx.Encoder) { e.Str(email) })
	}, skipField)
}

func (c *Client) UpdateProfile(ctx context.Context, idToken string, p auth.ProfileUpdate) (*auth.User, error) {
	var r account
	if err := c.call(ctx, "accounts:update", func(e *jx.Encoder) {
		e.Field("idToken", func(e *jx.Encoder) { e.Str(idToken) })
		if p.DisplayName != nil {
			e.Field("displayName", func(e *jx.Encoder) { e.Str(*p.DisplayName) })
		}
		if p.PhotoURL != nil {
			e.Field("photoUrl", func(e *jx.Encoder) { e.Str(*p.PhotoURL) })
		}
		e.Field("returnSecureToken", func(e *jx.Encoder) { e.Bool(false) })
	}, r.decode); err != nil {
		return nil, err
	}
	u := r.user()
	return &u, nil
}

func skipField(d *jx.Decoder, _ string) error {
	return d.Skip()
}

// call POSTs a JSON object built by body to method and decodes the response
// object fields with field.
func (c *Client) call(
	ctx context.Context,
	method string,
	body func(e *jx.Encoder),
	field func(d *jx.Decoder, key string) error,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var e jx.Encoder
	e.Obj(body)

	u := strings.TrimRight(c.cfg.Endpoint, "/") + "/" + method + "?key=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s", method)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return decodeError(data, resp.Status)
	}
	if err := jx.DecodeBytes(data).Obj(field); err != nil {
		return errors.Wrapf(err, "decode %s response", method)
	}
	return nil
}
