package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/platform/firebase"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/response"
)

const bearerPrefix = "Bearer "

// RequireSubject rejects requests without a valid identity token before any
// body is read, and stores the subject id for handlers.
func RequireSubject(verifier firebase.IdentityVerifier, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Unauthorized", ""))
			return
		}
		subject, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			logctx.FromGin(c, base).Infow("auth_rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Unauthorized", ""))
			return
		}

		c.Set(logctx.GinUserIDKey, subject)
		c.Request = c.Request.WithContext(logctx.WithUserID(c.Request.Context(), subject))
		setLogger(c, logctx.FromGin(c, base).With("user_id", subject))
		c.Next()
	}
}

// Subject returns the id stored by RequireSubject.
func Subject(c *gin.Context) string {
	return c.GetString(logctx.GinUserIDKey)
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, subjectID string) (bool, error)
}

// RequireAdmin must run after RequireSubject.
func RequireAdmin(admins AdminChecker, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := admins.IsAdmin(c.Request.Context(), Subject(c))
		if err != nil {
			logctx.FromGin(c, base).Errorw("admin_check_failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, nil))
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, nil))
			return
		}
		c.Next()
	}
}

// AllowMethods answers any other method on the route group with 405.
func AllowMethods(methods ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, m := range methods {
			if c.Request.Method == m {
				c.Next()
				return
			}
		}
		c.Header("Allow", strings.Join(methods, ", "))
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, response.Error("Method not allowed", ""))
	}
}
