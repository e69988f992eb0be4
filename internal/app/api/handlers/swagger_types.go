package handlers

import (
	"github.com/csinmamit/membership/internal/app/service/membership"
	"github.com/csinmamit/membership/internal/app/service/statistics"
	"github.com/csinmamit/membership/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespMembershipStatus wraps membership.Status in the standard envelope.
type RespMembershipStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    membership.Status        `json:"data"`
}

// RespCheckExpired wraps CheckExpiredResponse in the standard envelope.
type RespCheckExpired struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CheckExpiredResponse     `json:"data"`
}

// RespListMembershipPayments wraps membership.ListPaymentsResponse in the standard envelope.
type RespListMembershipPayments struct {
	Code    response.APIResponseCode        `json:"code"`
	Message string                          `json:"message"`
	Data    membership.ListPaymentsResponse `json:"data"`
}

// RespMembershipStatistic wraps MembershipStatisticResponse in the standard envelope.
type RespMembershipStatistic struct {
	Code    response.APIResponseCode               `json:"code"`
	Message string                                 `json:"message"`
	Data    statistics.MembershipStatisticResponse `json:"data"`
}
