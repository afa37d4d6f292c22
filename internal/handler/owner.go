package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/xenking/storefront/internal/domain/auth"
)

// DeviceIDHeader identifies an anonymous client's bag and favorites.
const DeviceIDHeader = "X-Device-ID"

const maxDeviceIDLen = 128

type ctxKey int

const (
	ownerKey ctxKey = iota
	sessionKey
)

func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}

func sessionFromContext(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionKey).(*auth.Session)
	return sess
}

// resolveOwner selects the owner of the request. A bearer token must resolve
// to a live session; without one the device id header is used.
func (h *Handler) resolveOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if token, ok := bearerToken(r); ok {
			sess, err := h.deps.Auth.Authenticate(ctx, token)
			if err != nil {
				writeError(w, r, err)
				return
			}
			ctx = context.WithValue(ctx, sessionKey, sess)
			ctx = context.WithValue(ctx, ownerKey, sess.User.Owner())
		} else if id := strings.TrimSpace(r.Header.Get(DeviceIDHeader)); validDeviceID(id) {
			ctx = context.WithValue(ctx, ownerKey, "device:"+id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOwner returns the request owner or writes 401.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := ownerFromContext(r.Context())
	if owner == "" {
		writeAPIError(w, r, &apiError{
			status:  http.StatusUnauthorized,
			message: "sign in or send " + DeviceIDHeader,
			reason:  "owner/missing",
		})
		return "", false
	}
	return owner, true
}

// requireSession returns the signed-in session or writes 401.
func requireSession(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	sess := sessionFromContext(r.Context())
	if sess == nil {
		writeError(w, r, auth.ErrUnauthenticated)
		return nil, false
	}
	return sess, true
}

func bearerToken(r *http.Request) (string, bool) {
	v := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(v) <= len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(v[len(prefix):])
	return token, token != ""
}

func validDeviceID(id string) bool {
	if id == "" || len(id) > maxDeviceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
