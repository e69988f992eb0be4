package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/app/service/payment"
	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/response"
)

const (
	SignatureHeader = "X-Razorpay-Signature"
	maxWebhookBody  = 1 << 20
)

// @Summary      Razorpay Webhook
// @Description  Receives gateway events. The signature covers the exact raw body. Any delivery with a valid signature is acknowledged, whatever the processing outcome.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Razorpay-Signature header string true "Hex HMAC-SHA256 of the raw body"
// @Param        payload body string true "Raw event JSON"
// @Success      200  {object}  response.WebhookAck
// @Failure      400  {object}  response.ErrorBody
// @Router       /api/razorpay/webhook [post]
func ApiRazorpayWebhook(mgr payment.PaymentManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, log)
		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			lg.Warnw("webhook_body_unreadable", "err", err)
			c.JSON(http.StatusBadRequest, response.Error("Invalid payload", ""))
			return
		}

		res, err := mgr.HandleWebhook(c.Request.Context(), raw, c.GetHeader(SignatureHeader))
		if err != nil {
			if errors.Is(err, apperr.ErrSignatureInvalid) {
				c.JSON(http.StatusBadRequest, response.Error("Invalid signature", ""))
				return
			}
			lg.Warnw("webhook_malformed", "err", err)
			c.JSON(http.StatusBadRequest, response.Error("Invalid payload", ""))
			return
		}

		switch res.Outcome {
		case payment.WebhookOutcomeRejected, payment.WebhookOutcomeFailed:
			// Acknowledged anyway; retries cannot fix these. Left for manual follow-up.
			lg.Errorw("webhook_not_applied", "event", res.Event, "payment_id", res.PaymentID,
				"outcome", res.Outcome, "reason", apperr.Reason(res.Err), "err", res.Err)
		default:
			lg.Infow("webhook_handled", "event", res.Event, "payment_id", res.PaymentID, "outcome", res.Outcome)
		}
		c.JSON(http.StatusOK, &response.WebhookAck{Received: true})
	}
}
