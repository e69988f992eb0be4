package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/app/api/middleware"
	"github.com/csinmamit/membership/internal/app/service/payment"
	"github.com/csinmamit/membership/pkg/apperr"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/response"
)

const (
	msgVerified          = "Payment verified successfully"
	msgAlreadyProcessed  = "Payment already processed"
	msgMembershipPending = "Payment verified successfully, but membership update failed. Please contact support."
	msgVerifyFailed      = "Payment verification failed"
)

// @Summary      Create Order
// @Description  Creates a gateway order for a membership plan. The total is recomputed server side and must match amount.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CreateOrderRequest true "Order request"
// @Success      200  {object}  payment.CreateOrderResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      401  {object}  response.ErrorBody
// @Failure      403  {object}  response.ErrorBody
// @Failure      429  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /api/razorpay/create-order [post]
func ApiCreateOrder(mgr payment.PaymentManager, cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.InvalidInput(bindErrors(err)))
			return
		}

		res, err := mgr.CreateOrder(c.Request.Context(), middleware.Subject(c), &req)
		if err != nil {
			if apperr.Retryable(err) {
				msg := "Internal server error"
				if cfg.IsDev() {
					msg = err.Error()
				}
				c.JSON(http.StatusInternalServerError, response.Error("Failed to create order", msg))
				return
			}
			abortError(c, err, cfg.IsDev())
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary      Verify Payment
// @Description  Verifies a checkout result and activates the membership. Amounts and plan are taken from the gateway, never from the request.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.VerifyPaymentRequest true "Checkout result"
// @Success      200  {object}  response.VerifyResult
// @Failure      400  {object}  response.VerifyResult
// @Failure      401  {object}  response.ErrorBody
// @Failure      403  {object}  response.VerifyResult
// @Failure      500  {object}  response.VerifyResult
// @Router       /api/razorpay/verify-payment [post]
func ApiVerifyPayment(mgr payment.PaymentManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, &response.VerifyResult{Message: "Missing payment details"})
			return
		}

		res, err := mgr.VerifyPayment(c.Request.Context(), middleware.Subject(c), &req)
		switch {
		case err == nil:
			msg := msgVerified
			if res.AlreadyProcessed {
				msg = msgAlreadyProcessed
			}
			c.JSON(http.StatusOK, &response.VerifyResult{
				Success:          true,
				Message:          msg,
				PaymentID:        res.PaymentID,
				OrderID:          res.OrderID,
				AlreadyProcessed: res.AlreadyProcessed,
			})
		case payment.MembershipPending(err):
			// The gateway has the money; only reads or bookkeeping are behind.
			logctx.FromGin(c, log).Errorw("membership_pending", "order_id", req.OrderID, "payment_id", req.PaymentID, "err", err)
			c.JSON(http.StatusOK, &response.VerifyResult{
				Success:           true,
				Message:           msgMembershipPending,
				PaymentID:         req.PaymentID,
				OrderID:           req.OrderID,
				MembershipPending: true,
			})
		case errors.Is(err, apperr.ErrSignatureInvalid):
			c.JSON(http.StatusBadRequest, &response.VerifyResult{Message: msgVerifyFailed})
		default:
			c.JSON(apperr.HTTPStatus(err), &response.VerifyResult{Message: errorTitle(err)})
		}
	}
}

func RegisterRazorpayRoutes(r gin.IRouter, mgr payment.PaymentManager, cfg *cfgpkg.Config, log *zap.SugaredLogger, auth gin.HandlerFunc) {
	useJSONFieldNames()
	post := middleware.AllowMethods(http.MethodPost)

	r.Any("/create-order", post, auth, ApiCreateOrder(mgr, cfg))
	r.Any("/verify-payment", post, auth, ApiVerifyPayment(mgr, log))
	r.Any("/webhook", post, ApiRazorpayWebhook(mgr, log))
	r.Any("/debug-signature", DevOnly(cfg), post, ApiDebugSignature(cfg))
}
