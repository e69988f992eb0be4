package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/app/api/middleware"
	"github.com/csinmamit/membership/internal/app/service/membership"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/response"
)

// MembershipService is the ledger surface the HTTP layer reads and sweeps through.
type MembershipService interface {
	GetMembership(ctx context.Context, subjectID string) (*membership.Status, error)
	SweepExpired(ctx context.Context) (int, error)
	ListPayments(ctx context.Context, req *membership.ListPaymentsRequest) (*membership.ListPaymentsResponse, error)
	IsAdmin(ctx context.Context, subjectID string) (bool, error)
}

// @Summary      My Membership
// @Description  Returns the caller's membership, with expiry evaluated at read time.
// @Tags         Membership
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespMembershipStatus
// @Router       /api/membership/me [get]
func ApiMyMembership(svc MembershipService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.GetMembership(c.Request.Context(), middleware.Subject(c))
		if err != nil {
			logctx.FromGin(c, log).Errorw("membership_read_failed", "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, nil))
			return
		}
		c.JSON(http.StatusOK, response.OKT(st))
	}
}

func RegisterMembershipRoutes(r gin.IRouter, svc MembershipService, log *zap.SugaredLogger, auth gin.HandlerFunc) {
	r.GET("/me", auth, ApiMyMembership(svc, log))
}
