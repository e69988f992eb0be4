package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/app/service/membership"
	"github.com/csinmamit/membership/internal/app/service/statistics"
	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/response"
)

type StatisticsService interface {
	GetMembershipStatistic(ctx context.Context, req *statistics.MembershipStatisticRequest) (*statistics.MembershipStatisticResponse, error)
}

type CheckExpiredResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

// @Summary      Check Expired Memberships (Admin)
// @Description  Demotes every executive member whose membership end date has passed.
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespCheckExpired
// @Router       /api/v1/admin/membership/check-expired [post]
func ApiCheckExpired(svc MembershipService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.SweepExpired(c.Request.Context())
		if err != nil {
			logctx.FromGin(c, log).Errorw("membership_sweep_failed", "err", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CheckExpiredResponse{Success: true, Updated: n}))
	}
}

// @Summary      List Membership Payments (Admin)
// @Description  Retrieves a paginated and filterable list of processed membership payments.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body membership.ListPaymentsRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListMembershipPayments
// @Router       /api/v1/admin/list_membership_payments [post]
func ApiListMembershipPayments(svc MembershipService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membership.ListPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ListPayments(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](adminCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Membership Statistics (Admin)
// @Description  Retrieves activation, revenue and headcount statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.MembershipStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespMembershipStatistic
// @Router       /api/v1/admin/get_membership_statistic [post]
func ApiGetMembershipStatistic(svc StatisticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.MembershipStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetMembershipStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](adminCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func adminCode(err error) response.APIResponseCode {
	if apperr.HTTPStatus(err) == http.StatusBadRequest {
		return response.APIResponseCodeBadRequest
	}
	return response.APIResponseCodeError
}

func RegisterAdminRoutes(r gin.IRouter, svc MembershipService, stats StatisticsService, log *zap.SugaredLogger) {
	r.POST("/membership/check-expired", ApiCheckExpired(svc, log))
	r.POST("/list_membership_payments", ApiListMembershipPayments(svc))
	r.POST("/get_membership_statistic", ApiGetMembershipStatistic(stats))
}
