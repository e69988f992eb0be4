// Package apperr holds the error taxonomy shared by the payment pipeline and
// its HTTP surface.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidPlan          = errors.New("invalid membership plan")
	ErrAmountMismatch       = errors.New("amount mismatch")
	ErrMissingOrderContext  = errors.New("missing order context")
	ErrSignatureInvalid     = errors.New("signature invalid")
	ErrPaymentNotCaptured   = errors.New("payment not captured")
	ErrOrderPaymentMismatch = errors.New("payment does not belong to order")
	ErrGatewayFetch         = errors.New("gateway fetch failed")
	ErrLedgerWrite          = errors.New("ledger write failed")
	ErrMembershipDisabled   = errors.New("membership purchases are disabled")
	ErrRateLimited          = errors.New("too many requests")
)

// HTTPStatus maps an error from the payment pipeline to its response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrMembershipDisabled):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidPlan),
		errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrMissingOrderContext),
		errors.Is(err, ErrSignatureInvalid),
		errors.Is(err, ErrPaymentNotCaptured),
		errors.Is(err, ErrOrderPaymentMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the failure may clear on its own (gateway or
// store trouble) as opposed to a business-rule rejection.
func Retryable(err error) bool {
	return errors.Is(err, ErrGatewayFetch) || errors.Is(err, ErrLedgerWrite)
}

// Reason returns a bounded label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidPlan):
		return "invalid_plan"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, ErrMissingOrderContext):
		return "missing_order_context"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrPaymentNotCaptured):
		return "not_captured"
	case errors.Is(err, ErrOrderPaymentMismatch):
		return "order_payment_mismatch"
	case errors.Is(err, ErrGatewayFetch):
		return "gateway_fetch"
	case errors.Is(err, ErrLedgerWrite):
		return "ledger_write"
	case errors.Is(err, ErrMembershipDisabled):
		return "membership_disabled"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "unknown"
	}
}
