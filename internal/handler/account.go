package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/imagehost"
)

func writeUser(w http.ResponseWriter, r *http.Request, u *auth.User, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

// CurrentUser handles GET /api/me.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	u, err := h.deps.Auth.CurrentUser(r.Context(), sess)
	writeUser(w, r, u, err)
}

// UpdatePhoto handles PUT /api/me/photo. The body carries either a base64
// image or the URL of an image to re-host.
func (h *Handler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var (
		in    auth.PhotoInput
		image string
	)
	if err := h.decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "image":
			image, err = d.Str()
		case "sourceUrl":
			in.SourceURL, err = d.Str()
		case "name":
			in.Name, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if image != "" {
		data, err := imagehost.DecodeBase64(image)
		if err != nil {
			writeError(w, r, badRequest("image must be base64"))
			return
		}
		in.Data = data
	}
	if len(in.Data) == 0 && in.SourceURL == "" {
		writeError(w, r, badRequest("image or sourceUrl is required"))
		return
	}

	u, err := h.deps.Auth.UpdatePhoto(r.Context(), sess, in)
	writeUser(w, r, u, err)
}
