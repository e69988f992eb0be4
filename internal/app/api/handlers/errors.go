package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/response"
)

// errorTitles are the short error strings clients match on.
var errorTitles = []struct {
	err   error
	title string
}{
	{apperr.ErrUnauthenticated, "Unauthorized"},
	{apperr.ErrForbidden, "Forbidden: user mismatch"},
	{apperr.ErrInvalidInput, "Invalid input"},
	{apperr.ErrInvalidPlan, "Invalid plan"},
	{apperr.ErrAmountMismatch, "Amount mismatch"},
	{apperr.ErrMissingOrderContext, "Missing order context (user/plan) in Razorpay order"},
	{apperr.ErrSignatureInvalid, "Invalid signature"},
	{apperr.ErrPaymentNotCaptured, "Payment not captured"},
	{apperr.ErrOrderPaymentMismatch, "Payment does not belong to order"},
	{apperr.ErrGatewayFetch, "Unable to fetch payment/order from Razorpay"},
	{apperr.ErrLedgerWrite, "Membership update failed"},
	{apperr.ErrMembershipDisabled, "Membership purchases are disabled"},
	{apperr.ErrRateLimited, "Too many requests"},
}

func errorTitle(err error) string {
	for _, t := range errorTitles {
		if errors.Is(err, t.err) {
			return t.title
		}
	}
	return "Internal server error"
}

var jsonNamesOnce sync.Once

// useJSONFieldNames makes validation errors name fields as clients send them.
func useJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindErrors turns binding failures into per-field details.
func bindErrors(err error) []response.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []response.FieldError{{Field: "body", Message: "malformed JSON"}}
	}
	out := make([]response.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, response.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	default:
		return "is invalid"
	}
}

// abortError writes the flat error body used by the payment endpoints.
// Internal details are only exposed in development.
func abortError(c *gin.Context, err error, dev bool) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && !dev {
		msg = "Internal server error"
	}
	c.AbortWithStatusJSON(status, response.Error(errorTitle(err), msg))
}
