package imagehost

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, endpoint string, maxBytes int64) *Client {
	t.Helper()
	c, err := New(Config{Endpoint: endpoint, APIKey: "test-key", MaxBytes: maxBytes}, nil)
	require.NoError(t, err)
	return c
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "profile_u1", r.PostForm.Get("name"))
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), r.PostForm.Get("image"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"abc","url":"https://i.ibb.co/abc/profile.png","display_url":"x"},"success":true,"status":200}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	got, err := c.Upload(context.Background(), "profile_u1", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc/profile.png", got)
}

func TestUpload_HostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status_code":400,"error":{"message":"Invalid API v1 key.","code":100},"status_txt":"Bad Request"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Upload(context.Background(), "x", []byte("data"))

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	assert.Equal(t, "Invalid API v1 key.", upErr.Message)
}

func TestUpload_TooLargeNeverCallsHost(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 4)
	_, err := c.Upload(context.Background(), "x", []byte("12345"))
	require.ErrorIs(t, err, ErrTooLarge)
	assert.False(t, called)
}

func TestUploadBase64_DataURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hi")), r.PostForm.Get("image"))
		_, _ = w.Write([]byte(`{"data":{"url":"https://i.ibb.co/hi.png"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	got, err := c.UploadBase64(context.Background(), "x", "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("hi")))
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/hi.png", got)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write([]byte("image"))
		case "/big.png":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, "http://unused", 16)
	ctx := context.Background()

	data, err := c.Fetch(ctx, srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("image"), data)

	_, err = c.Fetch(ctx, srv.URL+"/big.png")
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = c.Fetch(ctx, srv.URL+"/missing.png")
	require.Error(t, err)

	_, err = c.Fetch(ctx, "file:///etc/passwd")
	require.Error(t, err)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}
