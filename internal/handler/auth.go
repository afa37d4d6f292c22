package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
)

// credentials is the shared shape of the auth form bodies.
type credentials struct {
	Name     string
	Email    string
	Password string
	Provider string
	Token    string
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	err := h.decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "password":
			c.Password, err = d.Str()
		case "provider":
			c.Provider, err = d.Str()
		case "token":
			c.Token, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func writeSignIn(w http.ResponseWriter, r *http.Request, res *auth.SignInResult, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSignIn(e, res) })
}

// SignUp handles POST /api/auth/signup. The account must verify its email
// before it can sign in, so no token is returned.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	c, err := h.decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.deps.Auth.SignUp(r.Context(), c.Name, c.Email, c.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("user", func(e *jx.Encoder) { encodeUser(e, u) })
			e.Field("message", func(e *jx.Encoder) {
				e.Str("Account created. Check your inbox to verify your email.")
			})
		})
	})
}

// SignIn handles POST /api/auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	c, err := h.decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.deps.Auth.SignIn(r.Context(), c.Email, c.Password)
	writeSignIn(w, r, res, err)
}

// ResendVerification handles POST /api/auth/verification.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	c, err := h.decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.deps.Auth.ResendVerification(r.Context(), c.Email, c.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, msg)
}

// SignInFederated handles POST /api/auth/federated.
func (h *Handler) SignInFederated(w http.ResponseWriter, r *http.Request) {
	c, err := h.decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.deps.Auth.SignInFederated(r.Context(), c.Provider, c.Token)
	writeSignIn(w, r, res, err)
}

// SendPasswordReset handles POST /api/auth/password-reset.
func (h *Handler) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	c, err := h.decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Auth.SendPasswordReset(r.Context(), c.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset link sent to your email.")
}

// SignOut handles POST /api/auth/signout.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.deps.Auth.SignOut(r.Context(), sess); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
