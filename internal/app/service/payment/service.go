package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/app/service/membership"
	notificationlog "github.com/csinmamit/membership/internal/app/service/notification_log"
	"github.com/csinmamit/membership/internal/app/service/notifier"
	"github.com/csinmamit/membership/internal/app/service/pricing"
	"github.com/csinmamit/membership/internal/platform/razorpay"
	"github.com/csinmamit/membership/internal/platform/redis"
	"github.com/csinmamit/membership/pkg/apperr"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/metrics"
	"github.com/csinmamit/membership/pkg/types"
)

type Service struct {
	cfg      *cfgpkg.Config
	log      *zap.SugaredLogger
	gateway  razorpay.Gateway
	pricing  *pricing.Policy
	ledger   MembershipLedger
	attempts AttemptLog
	notifier notifier.Notifier
	limiter  Limiter
}

var _ PaymentManager = (*Service)(nil)

type Params struct {
	fx.In

	Cfg      *cfgpkg.Config
	Log      *zap.SugaredLogger
	Gateway  razorpay.Gateway
	Pricing  *pricing.Policy
	Ledger   *membership.Ledger
	Attempts *notificationlog.Service
	Notifier notifier.Notifier
	Limiter  *redis.RateLimiter `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		cfg:      p.Cfg,
		log:      p.Log,
		gateway:  p.Gateway,
		pricing:  p.Pricing,
		ledger:   p.Ledger,
		attempts: p.Attempts,
		notifier: p.Notifier,
		limiter:  p.Limiter,
	}
}

func (s *Service) CreateOrder(ctx context.Context, subjectID string, req *CreateOrderRequest) (res *CreateOrderResult, err error) {
	defer func() {
		metrics.OrderCreate.WithLabelValues(metrics.ResultLabel(apperr.Reason(err))).Inc()
	}()
	lg := logctx.FromCtx(ctx, s.log)

	if subjectID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", apperr.ErrInvalidInput)
	}
	if !s.cfg.Membership.Enabled {
		return nil, apperr.ErrMembershipDisabled
	}
	if req.UserID != subjectID {
		return nil, fmt.Errorf("%w: user mismatch", apperr.ErrForbidden)
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.cfg.Razorpay.Currency
	}
	if currency != s.cfg.Razorpay.Currency {
		return nil, fmt.Errorf("%w: unsupported currency %s", apperr.ErrInvalidInput, req.Currency)
	}

	quote, err := s.pricing.Quote(req.SelectedYears)
	if err != nil {
		return nil, err
	}
	if req.Amount != quote.TotalPrice {
		return nil, fmt.Errorf("%w: expected total amount %d for %d-year plan", apperr.ErrAmountMismatch, quote.TotalPrice, quote.Years)
	}

	if s.limiter != nil {
		// Fails open: a redis outage must not block purchases.
		if ok, err := s.limiter.Allow(ctx, subjectID); err != nil {
			lg.Warnw("order_rate_limit_unavailable", "err", err)
		} else if !ok {
			return nil, apperr.ErrRateLimited
		}
	}

	oc := razorpay.OrderContext{
		UserID:        subjectID,
		SelectedYears: quote.Years,
		BaseAmount:    quote.BasePrice,
		PlatformFee:   quote.PlatformFee,
		UserEmail:     req.UserEmail,
		UserName:      req.UserName,
		UserUsn:       req.UserUsn,
	}
	start := time.Now()
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   quote.MinorTotal(),
		Currency: currency,
		Receipt:  req.Receipt,
		Notes:    oc.Notes(),
	})
	metrics.ObserveProcess("gateway", "create_order", start)
	if err != nil {
		lg.Errorw("order_create_failed", "years", quote.Years, "err", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrGatewayFetch, err)
	}
	lg.Infow("order_created", "order_id", order.ID, "years", quote.Years, "amount", order.Amount)

	return &CreateOrderResult{
		Success:     true,
		OrderID:     order.ID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		PlatformFee: quote.PlatformFee,
		BaseAmount:  quote.BasePrice,
	}, nil
}

func (s *Service) VerifyPayment(ctx context.Context, subjectID string, req *VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	if subjectID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if req == nil || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, fmt.Errorf("%w: missing payment details", apperr.ErrInvalidInput)
	}
	entry := notificationlog.Entry{
		Source:    types.PaymentSourceVerify,
		Event:     string(types.PaymentSourceVerify),
		UserID:    subjectID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Data:      map[string]string{"razorpay_order_id": req.OrderID, "razorpay_payment_id": req.PaymentID},
	}
	s.attempts.Received(ctx, entry)

	if !razorpay.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature, s.cfg.Razorpay.KeySecret) {
		err := fmt.Errorf("%w: checkout signature", apperr.ErrSignatureInvalid)
		s.finish(ctx, entry, nil, err)
		return nil, err
	}

	out, err := s.process(ctx, processInput{
		OrderID:         req.OrderID,
		PaymentID:       req.PaymentID,
		Source:          types.PaymentSourceVerify,
		CallerSubjectID: subjectID,
	})
	s.finish(ctx, entry, out.logResult(), err)
	if err != nil {
		return nil, err
	}
	return &VerifyPaymentResult{
		OrderID:          req.OrderID,
		PaymentID:        req.PaymentID,
		AlreadyProcessed: out.AlreadyProcessed,
		MembershipType:   out.MembershipType,
		EndDate:          out.EndDate,
	}, nil
}

func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	lg := logctx.FromCtx(ctx, s.log)
	if !razorpay.VerifyWebhookSignature(rawBody, signature, s.cfg.Razorpay.WebhookSecret) {
		metrics.WebhookEvents.WithLabelValues("unknown", "signature_invalid").Inc()
		lg.Warnw("webhook_signature_invalid", "has_signature", signature != "", "body_bytes", len(rawBody))
		return nil, apperr.ErrSignatureInvalid
	}
	ev, err := razorpay.ParseWebhookEvent(rawBody)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	res := &WebhookResult{Event: ev.Event, PaymentID: ev.PaymentID()}
	defer func() {
		metrics.WebhookEvents.WithLabelValues(eventLabel(ev.Event), string(res.Outcome)).Inc()
	}()
	lg = lg.With("event", ev.Event, "payment_id", res.PaymentID)

	if ev.Event != razorpay.EventPaymentCaptured {
		res.Outcome = WebhookOutcomeIgnored
		lg.Infow("webhook_ignored")
		return res, nil
	}

	entry := notificationlog.Entry{
		Source:    types.PaymentSourceWebhook,
		Event:     ev.Event,
		OrderID:   ev.OrderIDHint(),
		PaymentID: res.PaymentID,
		Data:      ev,
	}
	s.attempts.Received(ctx, entry)

	if res.PaymentID == "" {
		res.Outcome, res.Err = WebhookOutcomeRejected, fmt.Errorf("%w: event without payment id", apperr.ErrInvalidInput)
		s.finish(ctx, entry, nil, res.Err)
		return res, nil
	}

	out, err := s.process(ctx, processInput{
		OrderID:   ev.OrderIDHint(),
		PaymentID: res.PaymentID,
		Source:    types.PaymentSourceWebhook,
	})
	entry.UserID = out.subjectID()
	s.finish(ctx, entry, out.logResult(), err)

	switch {
	case err == nil && out.AlreadyProcessed:
		res.Outcome = WebhookOutcomeDuplicate
	case err == nil:
		res.Outcome = WebhookOutcomeApplied
	case apperr.Retryable(err):
		res.Outcome, res.Err = WebhookOutcomeFailed, err
	default:
		res.Outcome, res.Err = WebhookOutcomeRejected, err
	}
	return res, nil
}

// finish closes out an attempt in the notification log and the counters.
func (s *Service) finish(ctx context.Context, entry notificationlog.Entry, result map[string]any, err error) {
	reason := apperr.Reason(err)
	metrics.PaymentVerifyRequests.WithLabelValues(string(entry.Source), metrics.ResultLabel(reason), reason).Inc()
	s.attempts.Handled(ctx, entry, result, err)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("payment_verify_failed",
			"source", entry.Source, "order_id", entry.OrderID, "payment_id", entry.PaymentID,
			"reason", reason, "retryable", apperr.Retryable(err), "err", err)
	}
}

func eventLabel(event string) string {
	if strings.HasPrefix(event, "payment.") || strings.HasPrefix(event, "order.") || strings.HasPrefix(event, "refund.") {
		return event
	}
	return "other"
}

// MembershipPending reports whether a synchronous verification failed after
// the checkout signature was accepted, on a gateway read or a ledger write.
// The customer has paid in both cases, so the caller reports success with the
// membership flagged for reconciliation.
func MembershipPending(err error) bool {
	return apperr.Retryable(err)
}

var Module = fx.Options(
	fx.Provide(
		NewService,
		func(s *Service) PaymentManager { return s },
	),
)
