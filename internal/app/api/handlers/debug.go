package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/csinmamit/membership/internal/platform/razorpay"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/response"
)

// DevOnly hides a route outside the dev environment.
func DevOnly(cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.IsDev() {
			c.AbortWithStatusJSON(http.StatusNotFound, response.Error("Not found", ""))
			return
		}
		c.Next()
	}
}

type debugSignatureResp struct {
	ExpectedSignature string `json:"expectedSignature"`
}

// ApiDebugSignature returns the webhook signature the server expects for the
// posted body. Development only.
func ApiDebugSignature(cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Razorpay.WebhookSecret == "" {
			c.JSON(http.StatusInternalServerError, response.Error("Server misconfiguration: missing webhook secret", ""))
			return
		}
		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error("Failed to compute signature", ""))
			return
		}
		c.JSON(http.StatusOK, &debugSignatureResp{ExpectedSignature: razorpay.Sign(raw, cfg.Razorpay.WebhookSecret)})
	}
}
