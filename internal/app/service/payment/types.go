package payment

import (
	"context"
	"time"

	"github.com/csinmamit/membership/internal/app/service/membership"
	notificationlog "github.com/csinmamit/membership/internal/app/service/notification_log"
)

type CreateOrderRequest struct {
	// Amount is the total the client expects to pay, in major units. It is
	// checked against the plan price and never sent to the gateway as is.
	Amount        int64  `json:"amount" binding:"required,gt=0,lte=1000000"`
	Currency      string `json:"currency" binding:"omitempty,len=3"`
	Receipt       string `json:"receipt" binding:"required,min=1,max=40"`
	UserID        string `json:"userId" binding:"required"`
	SelectedYears int    `json:"selectedYears" binding:"required,gt=0"`
	UserEmail     string `json:"userEmail" binding:"omitempty,email"`
	UserName      string `json:"userName" binding:"max=200"`
	UserUsn       string `json:"userUsn" binding:"max=40"`
}

type CreateOrderResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	// Amount is in minor units, as the checkout widget expects.
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	PlatformFee int64  `json:"platformFee"`
	BaseAmount  int64  `json:"baseAmount"`
}

// VerifyPaymentRequest is what the checkout widget hands back. Any other
// fields the client sends (amount, plan, contact) are ignored.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

type VerifyPaymentResult struct {
	OrderID          string
	PaymentID        string
	AlreadyProcessed bool
	MembershipType   string
	EndDate          time.Time
}

type WebhookOutcome string

const (
	WebhookOutcomeIgnored   WebhookOutcome = "ignored"
	WebhookOutcomeApplied   WebhookOutcome = "applied"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	// WebhookOutcomeRejected is a business-rule failure that a retry cannot fix.
	WebhookOutcomeRejected WebhookOutcome = "rejected"
	// WebhookOutcomeFailed is a gateway or store failure.
	WebhookOutcomeFailed WebhookOutcome = "failed"
)

type WebhookResult struct {
	Event     string
	PaymentID string
	Outcome   WebhookOutcome
	// Err is the processing failure behind a rejected or failed outcome. It
	// never changes the acknowledgement sent to the gateway.
	Err error
}

// PaymentManager is the payment pipeline: order creation and the two
// verification entry points.
type PaymentManager interface {
	CreateOrder(ctx context.Context, subjectID string, req *CreateOrderRequest) (*CreateOrderResult, error)
	// VerifyPayment applies a checkout result on behalf of subjectID.
	VerifyPayment(ctx context.Context, subjectID string, req *VerifyPaymentRequest) (*VerifyPaymentResult, error)
	// HandleWebhook returns an error only when the delivery must be refused:
	// a bad signature or an unparseable body.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error)
}

// MembershipLedger is the part of the ledger the pipeline writes through.
type MembershipLedger interface {
	Activate(ctx context.Context, a membership.Activation) (*membership.ActivationResult, error)
	IsProcessed(ctx context.Context, paymentID string) (bool, error)
}

// AttemptLog records every verification attempt and webhook delivery.
type AttemptLog interface {
	Received(ctx context.Context, e notificationlog.Entry)
	Handled(ctx context.Context, e notificationlog.Entry, result map[string]any, err error)
}

type Limiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
}
