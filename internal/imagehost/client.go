// Package imagehost uploads images to an imgbb-compatible hosting API.
package imagehost

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// DefaultEndpoint is the public imgbb upload API.
const DefaultEndpoint = "https://api.imgbb.com/1/upload"

// ErrTooLarge is returned for images above Config.MaxBytes.
var ErrTooLarge = errors.New("image too large")

// Config configures Client.
type Config struct {
	Endpoint string
	APIKey   string
	// MaxBytes bounds uploads and fetched images.
	MaxBytes int64
	Timeout  time.Duration
}

// Client talks to the image host.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. A nil httpClient uses http.DefaultTransport.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("image host api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// UploadError is a failure reported by the image host.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return "image host: " + e.Message
}

// Upload stores data under name and returns its public URL.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image")
	}
	if int64(len(data)) > c.cfg.MaxBytes {
		return "", ErrTooLarge
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	q := u.Query()
	q.Set("key", c.cfg.APIKey)
	u.RawQuery = q.Encode()

	form := url.Values{
		"image": {base64.StdEncoding.EncodeToString(data)},
		"name":  {name},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}

	hosted, err := decodeURL(body)
	if err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return hosted, nil
}

// UploadBase64 decodes a base64 payload, optionally prefixed with a data URI
// header, and uploads it.
func (c *Client) UploadBase64(ctx context.Context, name, encoded string) (string, error) {
	data, err := DecodeBase64(encoded)
	if err != nil {
		return "", err
	}
	return c.Upload(ctx, name, data)
}

// Fetch downloads a remote image for re-hosting.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("invalid image url %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch image: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	if int64(len(data)) > c.cfg.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// DecodeBase64 decodes standard base64, accepting a "data:<mime>;base64,"
// prefix.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, errors.New("malformed data uri")
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode base64")
	}
	return data, nil
}

// decodeURL extracts data.url from an upload response.
func decodeURL(body []byte) (string, error) {
	var hosted string
	if err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "data" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "url" {
				return d.Skip()
			}
			v, err := d.Str()
			hosted = v
			return err
		})
	}); err != nil {
		return "", err
	}
	if hosted == "" {
		return "", errors.New("missing data.url")
	}
	return hosted, nil
}

// errorMessage extracts error.message, falling back to fallback.
func errorMessage(body []byte, fallback string) string {
	msg := fallback
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
				msg = v
			}
			return err
		})
	})
	return msg
}
