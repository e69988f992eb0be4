package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/csinmamit/membership/internal/app/service/membership"
	"github.com/csinmamit/membership/internal/app/service/notifier"
	"github.com/csinmamit/membership/internal/platform/razorpay"
	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/metrics"
	"github.com/csinmamit/membership/pkg/types"
)

type processInput struct {
	// OrderID is authoritative on the checkout path. On the webhook path it is
	// only a hint; the payment's own order link wins.
	OrderID   string
	PaymentID string
	Source    types.PaymentSource
	// CallerSubjectID is the authenticated caller, empty on the webhook path.
	CallerSubjectID string
}

type processOutput struct {
	Context          *razorpay.OrderContext
	AlreadyProcessed bool
	MembershipType   string
	EndDate          time.Time
}

func (o *processOutput) subjectID() string {
	if o == nil || o.Context == nil {
		return ""
	}
	return o.Context.UserID
}

func (o *processOutput) logResult() map[string]any {
	if o == nil {
		return nil
	}
	res := map[string]any{"already_processed": o.AlreadyProcessed}
	if o.Context != nil {
		res["user_id"] = o.Context.UserID
		res["selected_years"] = o.Context.SelectedYears
	}
	if !o.EndDate.IsZero() {
		res["membership_end_date"] = o.EndDate
	}
	return res
}

// process is the verification procedure shared by the checkout and webhook
// paths. Everything it trusts comes from the gateway API and the pricing
// policy. The returned output carries whatever context was established, even
// on error.
func (s *Service) process(ctx context.Context, in processInput) (*processOutput, error) {
	out := &processOutput{}
	lg := logctx.FromCtx(ctx, s.log).With("source", in.Source, "payment_id", in.PaymentID)

	start := time.Now()
	payment, err := s.gateway.FetchPayment(ctx, in.PaymentID)
	if err != nil {
		return out, fmt.Errorf("%w: payment %s: %w", apperr.ErrGatewayFetch, in.PaymentID, err)
	}
	orderID := in.OrderID
	if in.Source == types.PaymentSourceWebhook && payment.OrderID != "" {
		orderID = payment.OrderID
	}
	if orderID == "" {
		return out, fmt.Errorf("%w: payment %s has no order", apperr.ErrOrderPaymentMismatch, in.PaymentID)
	}
	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return out, fmt.Errorf("%w: order %s: %w", apperr.ErrGatewayFetch, orderID, err)
	}
	metrics.ObserveProcess("gateway", "fetch", start)

	switch {
	case !payment.IsCaptured():
		return out, fmt.Errorf("%w: status %q", apperr.ErrPaymentNotCaptured, payment.Status)
	case payment.OrderID != order.ID:
		return out, fmt.Errorf("%w: payment order %q, order %q", apperr.ErrOrderPaymentMismatch, payment.OrderID, order.ID)
	case payment.Amount != order.Amount:
		return out, fmt.Errorf("%w: payment %d, order %d", apperr.ErrAmountMismatch, payment.Amount, order.Amount)
	case payment.Currency != order.Currency || order.Currency != s.cfg.Razorpay.Currency:
		return out, fmt.Errorf("%w: currency %q/%q", apperr.ErrAmountMismatch, payment.Currency, order.Currency)
	}

	oc, err := razorpay.ParseOrderContext(order.Notes)
	if err != nil {
		return out, fmt.Errorf("%w: %w", apperr.ErrMissingOrderContext, err)
	}
	out.Context = oc
	if in.CallerSubjectID != "" && oc.UserID != in.CallerSubjectID {
		return out, fmt.Errorf("%w: user mismatch", apperr.ErrForbidden)
	}

	quote, err := s.pricing.Quote(oc.SelectedYears)
	if err != nil {
		return out, err
	}
	if order.Amount != quote.MinorTotal() {
		return out, fmt.Errorf("%w: expected %d for %d-year plan, order has %d", apperr.ErrAmountMismatch, quote.MinorTotal(), quote.Years, order.Amount)
	}

	done, err := s.ledger.IsProcessed(ctx, payment.ID)
	if err != nil {
		return out, err
	}
	if done {
		out.AlreadyProcessed = true
		lg.Infow("payment_already_processed", "order_id", order.ID)
		return out, nil
	}

	start = time.Now()
	res, err := s.ledger.Activate(ctx, membership.Activation{
		SubjectID:   oc.UserID,
		Years:       quote.Years,
		OrderID:     order.ID,
		PaymentID:   payment.ID,
		BasePrice:   quote.BasePrice,
		PlatformFee: quote.PlatformFee,
		TotalPrice:  quote.TotalPrice,
		Currency:    order.Currency,
		Source:      in.Source,
	})
	metrics.ObserveProcess("ledger", "activate", start)
	if err != nil {
		lg.Errorw("membership_activation_failed", "order_id", order.ID, "user_id", oc.UserID, "err", err)
		return out, err
	}
	if res.AlreadyProcessed {
		out.AlreadyProcessed = true
		return out, nil
	}
	out.MembershipType = res.MembershipType
	out.EndDate = res.EndDate

	s.notifier.MembershipActivated(ctx, notifier.Notice{
		Name:           oc.UserName,
		Email:          oc.UserEmail,
		Usn:            oc.UserUsn,
		MembershipType: res.MembershipType,
		EndDate:        res.EndDate,
		OrderID:        order.ID,
		PaymentID:      payment.ID,
		TotalPrice:     quote.TotalPrice,
		PlatformFee:    quote.PlatformFee,
		Currency:       order.Currency,
		Source:         in.Source,
	})
	return out, nil
}
