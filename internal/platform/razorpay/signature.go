package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/razorpay/razorpay-go/utils"
)

// VerifyPaymentSignature checks the checkout signature over "orderID|paymentID"
// made with the API key secret.
func VerifyPaymentSignature(orderID, paymentID, signature, keySecret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || keySecret == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, keySecret)
}

// VerifyWebhookSignature checks the webhook signature over the exact raw body.
func VerifyWebhookSignature(rawBody []byte, signature, webhookSecret string) bool {
	if signature == "" || webhookSecret == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(rawBody), signature, webhookSecret)
}

// Sign returns the hex HMAC-SHA256 of payload. Used by diagnostics and tests,
// never by the verification paths.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
