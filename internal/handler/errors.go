package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/bag"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/imagehost"
)

// apiError is the {"code", "message", "reason"} error body.
type apiError struct {
	status  int
	message string
	// reason is a machine-readable code such as "auth/wrong-password".
	reason string
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(msg string) *apiError {
	return &apiError{status: http.StatusBadRequest, message: msg}
}

// authStatus maps auth codes to HTTP statuses. Unlisted codes are 400.
var authStatus = map[string]int{
	auth.CodeSessionExpired:    http.StatusUnauthorized,
	auth.CodeUserNotFound:      http.StatusUnauthorized,
	auth.CodeWrongPassword:     http.StatusUnauthorized,
	auth.CodeInvalidCredential: http.StatusUnauthorized,
	auth.CodeEmailNotVerified:  http.StatusForbidden,
	auth.CodeUserDisabled:      http.StatusForbidden,
	auth.CodeEmailAlreadyInUse: http.StatusConflict,
	auth.CodeTooManyRequests:   http.StatusTooManyRequests,
}

// toAPIError maps domain errors to responses. It returns nil for errors that
// must be reported as 500.
func toAPIError(err error) *apiError {
	var (
		ae          *apiError
		authErr     *auth.Error
		quantityErr *bag.InvalidQuantityError
		currencyErr *bag.CurrencyMismatchError
		missingErr  *order.ProductNotFoundError
		addressErr  *order.InvalidAddressError
		uploadErr   *imagehost.UploadError
	)
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.As(err, &authErr):
		status, ok := authStatus[authErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		return &apiError{status: status, message: authErr.Message, reason: authErr.Code}
	case errors.Is(err, product.ErrNotFound):
		return &apiError{status: http.StatusNotFound, message: "product not found"}
	case errors.As(err, &quantityErr):
		return &apiError{status: http.StatusUnprocessableEntity, message: quantityErr.Error(), reason: "bag/invalid-quantity"}
	case errors.As(err, &currencyErr):
		return &apiError{status: http.StatusUnprocessableEntity, message: currencyErr.Error(), reason: "bag/currency-mismatch"}
	case errors.As(err, &missingErr):
		return &apiError{status: http.StatusUnprocessableEntity, message: missingErr.Error(), reason: "checkout/product-not-found"}
	case errors.As(err, &addressErr):
		return &apiError{
			status:  http.StatusUnprocessableEntity,
			message: "missing address fields: " + strings.Join(addressErr.Fields, ", "),
			reason:  "checkout/invalid-address",
		}
	case errors.Is(err, order.ErrEmptyBag):
		return &apiError{status: http.StatusBadRequest, message: "bag is empty", reason: "checkout/empty-bag"}
	case errors.Is(err, order.ErrInvalidPaymentMethod):
		return &apiError{status: http.StatusBadRequest, message: "payment method must be whatsapp, cod or online", reason: "checkout/invalid-payment-method"}
	case errors.Is(err, order.ErrMessagingNotConfigured):
		return &apiError{status: http.StatusUnprocessableEntity, message: "whatsapp ordering is not available", reason: "checkout/payment-unavailable"}
	case errors.Is(err, payment.ErrUnavailable):
		return &apiError{status: http.StatusUnprocessableEntity, message: "online payment is not available", reason: "checkout/payment-unavailable"}
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return &apiError{status: http.StatusUnprocessableEntity, message: "invalid coupon code", reason: "coupon/invalid"}
	case errors.Is(err, coupon.ErrCouponExpired):
		return &apiError{status: http.StatusUnprocessableEntity, message: "coupon expired", reason: "coupon/expired"}
	case errors.Is(err, coupon.ErrCouponUsageLimitReached):
		return &apiError{status: http.StatusUnprocessableEntity, message: "coupon usage limit reached", reason: "coupon/usage-limit"}
	case errors.Is(err, auth.ErrPhotoUploadUnavailable):
		return &apiError{status: http.StatusUnprocessableEntity, message: "profile photo upload is not available", reason: "image/unavailable"}
	case errors.Is(err, imagehost.ErrTooLarge):
		return &apiError{status: http.StatusRequestEntityTooLarge, message: "image too large", reason: "image/too-large"}
	case errors.As(err, &uploadErr):
		return &apiError{status: http.StatusBadGateway, message: uploadErr.Error(), reason: "image/upload-failed"}
	}
	return nil
}

// writeError writes the response for err. Unrecognized errors are logged and
// reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := toAPIError(err)
	if ae == nil {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		ae = &apiError{status: http.StatusInternalServerError, message: "internal error"}
	}
	writeAPIError(w, r, ae)
}

func writeAPIError(w http.ResponseWriter, _ *http.Request, ae *apiError) {
	writeJSON(w, ae.status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(ae.status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(ae.message) })
			if ae.reason != "" {
				e.Field("reason", func(e *jx.Encoder) { e.Str(ae.reason) })
			}
		})
	})
}
