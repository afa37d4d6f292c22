package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_Order(t *testing.T) {
	var calls []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(Wrap(okHandler(), tag("outer"), tag("inner")), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":500,"message":"internal error"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("Generated", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})
	t.Run("Reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "mobile-123")
		w := serve(h, req)
		assert.Equal(t, "mobile-123", seen)
		assert.Equal(t, "mobile-123", w.Header().Get(RequestIDHeader))
	})
	t.Run("Rejected", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", 129), "bad\nid"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, bad)
			serve(h, req)
			assert.NotEqual(t, bad, seen)
			assert.Len(t, seen, 36)
		}
	})
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestCORS(t *testing.T) {
	t.Run("Wildcard", func(t *testing.T) {
		h := CORS(CORSConfig{})(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://shop.example")
		w := serve(h, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Values("Vary"))
	})
	t.Run("Preflight", func(t *testing.T) {
		h := CORS(CORSConfig{
			AllowOrigins: []string{"https://Shop.example"},
			AllowHeaders: []string{"Authorization", "X-Device-ID"},
			MaxAge:       600,
		})(okHandler())
		req := httptest.NewRequest(http.MethodOptions, "/api/bag", nil)
		req.Header.Set("Origin", "https://shop.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := serve(h, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://Shop.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Authorization, X-Device-ID", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Values("Vary"), "Origin")
	})
	t.Run("DisallowedOrigin", func(t *testing.T) {
		h := CORS(CORSConfig{AllowOrigins: []string{"https://shop.example"}})(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := serve(h, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
	t.Run("CredentialsEchoOrigin", func(t *testing.T) {
		h := CORS(CORSConfig{AllowCredentials: true})(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://shop.example")
		w := serve(h, req)
		assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func testRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/api/bag/items/{id}", okHandler()).Methods(http.MethodPut)
	return r
}

func TestMakeRouteFinder(t *testing.T) {
	find := MakeRouteFinder(testRouter())

	route, ok := find(httptest.NewRequest(http.MethodPut, "/api/bag/items/42", nil))
	require.True(t, ok)
	assert.Equal(t, "/api/bag/items/{id}", route)

	_, ok = find(httptest.NewRequest(http.MethodGet, "/api/bag/items/42", nil))
	assert.False(t, ok)
	_, ok = find(httptest.NewRequest(http.MethodPut, "/nope", nil))
	assert.False(t, ok)
}

func TestLogRequests(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := testRouter()
	find := MakeRouteFinder(router)
	h := Wrap(router, RequestID(), InjectLogger(zap.New(core)), LogRequests(find))

	req := httptest.NewRequest(http.MethodPut, "/api/bag/items/42", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	serve(h, req)

	entries := logs.FilterMessage("Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/bag/items/{id}", fields["route"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestInjectLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Wrap(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		zctx.From(r.Context()).Info("Inside")
	}), RequestID(), InjectLogger(zap.New(core)))

	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	entries := logs.FilterMessage("Inside").All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

type noopTelemetry struct{}

func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }
func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }

func TestInstrument(t *testing.T) {
	router := testRouter()
	find := MakeRouteFinder(router)
	h := Wrap(router, Instrument("storefront", find, noopTelemetry{}), Labeler(find))

	w := serve(h, httptest.NewRequest(http.MethodPut, "/api/bag/items/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
