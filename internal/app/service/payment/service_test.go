package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/app/service/membership"
	notificationlog "github.com/csinmamit/membership/internal/app/service/notification_log"
	"github.com/csinmamit/membership/internal/app/service/notifier"
	"github.com/csinmamit/membership/internal/app/service/pricing"
	"github.com/csinmamit/membership/internal/platform/razorpay"
	"github.com/csinmamit/membership/pkg/apperr"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/types"
)

const (
	keySecret     = "rzp_test_secret"
	webhookSecret = "whsec_test"
)

type fakeGateway struct {
	mu       sync.Mutex
	orders   map[string]*razorpay.Order
	payments map[string]*razorpay.Payment
	created  []razorpay.OrderRequest
	fetchErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{orders: map[string]*razorpay.Order{}, payments: map[string]*razorpay.Payment{}}
}

func (g *fakeGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	o := &razorpay.Order{ID: fmt.Sprintf("order_%d", len(g.created)), Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Notes: req.Notes}
	g.orders[o.ID] = o
	return o, nil
}

func (g *fakeGateway) FetchOrder(_ context.Context, id string) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	o, ok := g.orders[id]
	if !ok {
		return nil, errors.New("BAD_REQUEST_ERROR: order not found")
	}
	cp := *o
	return &cp, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, id string) (*razorpay.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	p, ok := g.payments[id]
	if !ok {
		return nil, errors.New("BAD_REQUEST_ERROR: payment not found")
	}
	cp := *p
	return &cp, nil
}

// seed registers a captured payment for a membership order.
func (g *fakeGateway) seed(orderID, paymentID, userID string, years int, amount int64) {
	g.orders[orderID] = &razorpay.Order{
		ID: orderID, Amount: amount, Currency: "INR", Status: "paid",
		Notes: razorpay.OrderContext{UserID: userID, SelectedYears: years, UserEmail: "m@example.com", UserName: "Member"}.Notes(),
	}
	g.payments[paymentID] = &razorpay.Payment{
		ID: paymentID, OrderID: orderID, Amount: amount, Currency: "INR", Status: razorpay.PaymentStatusCaptured,
	}
}

type fakeLedger struct {
	mu          sync.Mutex
	processed   map[string]membership.Activation
	activations int
	err         error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{processed: map[string]membership.Activation{}}
}

// Activate checks and records under one lock, standing in for the
// ON CONFLICT (payment_id) DO NOTHING marker insert in membership.GormStore.Apply
// (see TestGormStore_Apply_SecondWriterForSamePaymentSkipsUserWrite).
func (l *fakeLedger) Activate(_ context.Context, a membership.Activation) (*membership.ActivationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrLedgerWrite, l.err)
	}
	if _, ok := l.processed[a.PaymentID]; ok {
		return &membership.ActivationResult{AlreadyProcessed: true}, nil
	}
	l.processed[a.PaymentID] = a
	l.activations++
	end := time.Now().AddDate(a.Years, 0, 0)
	return &membership.ActivationResult{MembershipType: membership.Label(a.Years, end), EndDate: end}, nil
}

func (l *fakeLedger) IsProcessed(_ context.Context, paymentID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.processed[paymentID]
	return ok, nil
}

type fakeAttempts struct {
	mu      sync.Mutex
	handled []error
}

func (f *fakeAttempts) Received(context.Context, notificationlog.Entry) {}

func (f *fakeAttempts) Handled(_ context.Context, _ notificationlog.Entry, _ map[string]any, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handled = append(f.handled, err)
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notifier.Notice
}

func (f *fakeNotifier) MembershipActivated(_ context.Context, n notifier.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type harness struct {
	svc      *Service
	gateway  *fakeGateway
	ledger   *fakeLedger
	attempts *fakeAttempts
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &cfgpkg.Config{
		Razorpay:   cfgpkg.RazorpayConfig{KeySecret: keySecret, WebhookSecret: webhookSecret, Currency: "INR"},
		Membership: cfgpkg.MembershipConfig{Enabled: true, FeeRateBps: 200},
	}
	policy, err := pricing.NewPolicy([]*types.MembershipPlan{
		{Years: 1, BasePrice: 350}, {Years: 2, BasePrice: 650}, {Years: 3, BasePrice: 900},
	}, cfg.Membership.FeeRateBps)
	require.NoError(t, err)

	h := &harness{gateway: newFakeGateway(), ledger: newFakeLedger(), attempts: &fakeAttempts{}, notifier: &fakeNotifier{}}
	h.svc = &Service{
		cfg:      cfg,
		log:      zap.NewNop().Sugar(),
		gateway:  h.gateway,
		pricing:  policy,
		ledger:   h.ledger,
		attempts: h.attempts,
		notifier: h.notifier,
	}
	return h
}

func checkoutSignature(orderID, paymentID string) string {
	return razorpay.Sign([]byte(orderID+"|"+paymentID), keySecret)
}

func capturedEvent(paymentID, orderID string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{"entity":"event","event":"payment.captured","contains":["payment"],"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"amount":%d,"currency":"INR","status":"captured"}}},"created_at":1700000000}`,
		paymentID, orderID, amount))
}

func TestCreateOrder(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.CreateOrder(context.Background(), "uid-1", &CreateOrderRequest{
		Amount: 664, Receipt: "rcpt_1", UserID: "uid-1", SelectedYears: 2, UserEmail: "a@b.co", UserName: "A",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(66400), res.Amount)
	require.Equal(t, "INR", res.Currency)
	require.Equal(t, int64(14), res.PlatformFee)
	require.Equal(t, int64(650), res.BaseAmount)

	require.Len(t, h.gateway.created, 1)
	notes := h.gateway.created[0].Notes
	require.Equal(t, "uid-1", notes[razorpay.NoteUserID])
	require.Equal(t, "2", notes[razorpay.NoteSelectedYears])
	require.Equal(t, "650", notes[razorpay.NoteBaseAmount])
	require.Equal(t, "14", notes[razorpay.NotePlatformFee])
	require.NotContains(t, notes, razorpay.NoteUserUsn)
}

func TestCreateOrder_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		req     CreateOrderRequest
		setup   func(h *harness)
		want    error
	}{
		{"unauthenticated", "", CreateOrderRequest{Amount: 358, Receipt: "r", UserID: "uid-1", SelectedYears: 1}, nil, apperr.ErrUnauthenticated},
		{"other subject", "uid-2", CreateOrderRequest{Amount: 358, Receipt: "r", UserID: "uid-1", SelectedYears: 1}, nil, apperr.ErrForbidden},
		{"unknown plan", "uid-1", CreateOrderRequest{Amount: 358, Receipt: "r", UserID: "uid-1", SelectedYears: 5}, nil, apperr.ErrInvalidPlan},
		{"tampered amount", "uid-1", CreateOrderRequest{Amount: 1, Receipt: "r", UserID: "uid-1", SelectedYears: 1}, nil, apperr.ErrAmountMismatch},
		{"total rounded down", "uid-1", CreateOrderRequest{Amount: 357, Receipt: "r", UserID: "uid-1", SelectedYears: 1}, nil, apperr.ErrAmountMismatch},
		{"base price as total", "uid-1", CreateOrderRequest{Amount: 350, Receipt: "r", UserID: "uid-1", SelectedYears: 1}, nil, apperr.ErrAmountMismatch},
		{"foreign currency", "uid-1", CreateOrderRequest{Amount: 358, Currency: "USD", Receipt: "r", UserID: "uid-1", SelectedYears: 1}, nil, apperr.ErrInvalidInput},
		{"disabled", "uid-1", CreateOrderRequest{Amount: 358, Receipt: "r", UserID: "uid-1", SelectedYears: 1},
			func(h *harness) { h.svc.cfg.Membership.Enabled = false }, apperr.ErrMembershipDisabled},
		{"rate limited", "uid-1", CreateOrderRequest{Amount: 358, Receipt: "r", UserID: "uid-1", SelectedYears: 1},
			func(h *harness) { h.svc.limiter = denyLimiter{} }, apperr.ErrRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			if tc.setup != nil {
				tc.setup(h)
			}
			_, err := h.svc.CreateOrder(context.Background(), tc.subject, &tc.req)
			require.ErrorIs(t, err, tc.want)
			require.Empty(t, h.gateway.created)
		})
	}
}

func TestVerifyPayment_Activates(t *testing.T) {
	h := newHarness(t)
	h.gateway.seed("order_1", "pay_1", "uid-1", 1, 35800)

	res, err := h.svc.VerifyPayment(context.Background(), "uid-1", &VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: checkoutSignature("order_1", "pay_1"),
	})
	require.NoError(t, err)
	require.False(t, res.AlreadyProcessed)
	require.Contains(t, res.MembershipType, "1-Year Executive Membership")

	a := h.ledger.processed["pay_1"]
	require.Equal(t, "uid-1", a.SubjectID)
	require.Equal(t, int64(350), a.BasePrice)
	require.Equal(t, int64(8), a.PlatformFee)
	require.Equal(t, int64(358), a.TotalPrice)
	require.Equal(t, types.PaymentSourceVerify, a.Source)
	require.Len(t, h.notifier.notices, 1)
	require.Equal(t, "m@example.com", h.notifier.notices[0].Email)
	require.Equal(t, []error{nil}, h.attempts.handled)

	again, err := h.svc.VerifyPayment(context.Background(), "uid-1", &VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: checkoutSignature("order_1", "pay_1"),
	})
	require.NoError(t, err)
	require.True(t, again.AlreadyProcessed)
	require.Equal(t, 1, h.ledger.activations)
	require.Len(t, h.notifier.notices, 1)
}

func TestVerifyPayment_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		sig     string
		setup   func(g *fakeGateway)
		want    error
	}{
		{"bad signature", "uid-1", "deadbeef", nil, apperr.ErrSignatureInvalid},
		{"other subject", "uid-2", "", nil, apperr.ErrForbidden},
		{"not captured", "uid-1", "", func(g *fakeGateway) { g.payments["pay_1"].Status = "authorized" }, apperr.ErrPaymentNotCaptured},
		{"payment of another order", "uid-1", "", func(g *fakeGateway) { g.payments["pay_1"].OrderID = "order_9" }, apperr.ErrOrderPaymentMismatch},
		{"partial payment", "uid-1", "", func(g *fakeGateway) { g.payments["pay_1"].Amount = 100 }, apperr.ErrAmountMismatch},
		{"order below plan price", "uid-1", "", func(g *fakeGateway) {
			g.orders["order_1"].Amount = 100
			g.payments["pay_1"].Amount = 100
		}, apperr.ErrAmountMismatch},
		{"notes without subject", "uid-1", "", func(g *fakeGateway) { g.orders["order_1"].Notes = razorpay.Notes{} }, apperr.ErrMissingOrderContext},
		{"unknown plan in notes", "uid-1", "", func(g *fakeGateway) { g.orders["order_1"].Notes[razorpay.NoteSelectedYears] = "7" }, apperr.ErrInvalidPlan},
		{"gateway down", "uid-1", "", func(g *fakeGateway) { g.fetchErr = errors.New("timeout") }, apperr.ErrGatewayFetch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.gateway.seed("order_1", "pay_1", "uid-1", 1, 35800)
			if tc.setup != nil {
				tc.setup(h.gateway)
			}
			sig := tc.sig
			if sig == "" {
				sig = checkoutSignature("order_1", "pay_1")
			}
			_, err := h.svc.VerifyPayment(context.Background(), tc.subject, &VerifyPaymentRequest{
				OrderID: "order_1", PaymentID: "pay_1", Signature: sig,
			})
			require.ErrorIs(t, err, tc.want)
			require.Zero(t, h.ledger.activations)
			require.Empty(t, h.notifier.notices)
			require.Len(t, h.attempts.handled, 1)
		})
	}
}

func TestVerifyPayment_LedgerFailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.gateway.seed("order_1", "pay_1", "uid-1", 3, 91900)
	h.ledger.err = errors.New("connection reset")

	_, err := h.svc.VerifyPayment(context.Background(), "uid-1", &VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: checkoutSignature("order_1", "pay_1"),
	})
	require.True(t, MembershipPending(err))
	require.True(t, apperr.Retryable(err))
	require.Empty(t, h.notifier.notices)
}

func TestVerifyPayment_GatewayFailureIsPending(t *testing.T) {
	h := newHarness(t)
	h.gateway.seed("order_1", "pay_1", "uid-1", 1, 35800)
	h.gateway.fetchErr = errors.New("i/o timeout")

	_, err := h.svc.VerifyPayment(context.Background(), "uid-1", &VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: checkoutSignature("order_1", "pay_1"),
	})
	require.ErrorIs(t, err, apperr.ErrGatewayFetch)
	require.True(t, MembershipPending(err))
	require.Zero(t, h.ledger.activations)

	// A forged checkout never reaches the gateway and is a plain failure.
	_, err = h.svc.VerifyPayment(context.Background(), "uid-1", &VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: "forged",
	})
	require.ErrorIs(t, err, apperr.ErrSignatureInvalid)
	require.False(t, MembershipPending(err))
}

func TestHandleWebhook_Activates(t *testing.T) {
	h := newHarness(t)
	h.gateway.seed("order_1", "pay_1", "uid-1", 2, 66400)
	body := capturedEvent("pay_1", "order_1", 66400)

	res, err := h.svc.HandleWebhook(context.Background(), body, razorpay.Sign(body, webhookSecret))
	require.NoError(t, err)
	require.Equal(t, WebhookOutcomeApplied, res.Outcome)
	require.Equal(t, types.PaymentSourceWebhook, h.ledger.processed["pay_1"].Source)

	res, err = h.svc.HandleWebhook(context.Background(), body, razorpay.Sign(body, webhookSecret))
	require.NoError(t, err)
	require.Equal(t, WebhookOutcomeDuplicate, res.Outcome)
	require.Equal(t, 1, h.ledger.activations)
}

func TestHandleWebhook_SignatureOverExactBytes(t *testing.T) {
	h := newHarness(t)
	h.gateway.seed("order_1", "pay_1", "uid-1", 1, 35800)
	body := capturedEvent("pay_1", "order_1", 35800)
	sig := razorpay.Sign(body, webhookSecret)

	mutated := append([]byte(" "), body...)
	_, err := h.svc.HandleWebhook(context.Background(), mutated, sig)
	require.ErrorIs(t, err, apperr.ErrSignatureInvalid)

	_, err = h.svc.HandleWebhook(context.Background(), body, "")
	require.ErrorIs(t, err, apperr.ErrSignatureInvalid)
	require.Zero(t, h.ledger.activations)
}

func TestHandleWebhook_MalformedBody(t *testing.T) {
	h := newHarness(t)
	body := []byte(`{"event":`)
	_, err := h.svc.HandleWebhook(context.Background(), body, razorpay.Sign(body, webhookSecret))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	h := newHarness(t)
	body := []byte(`{"entity":"event","event":"payment.authorized","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)

	res, err := h.svc.HandleWebhook(context.Background(), body, razorpay.Sign(body, webhookSecret))
	require.NoError(t, err)
	require.Equal(t, WebhookOutcomeIgnored, res.Outcome)
	require.Empty(t, h.attempts.handled)
}

func TestHandleWebhook_AmountMismatchIsAcknowledged(t *testing.T) {
	h := newHarness(t)
	// Order and payment agree with each other but not with the 1-year price.
	h.gateway.seed("order_1", "pay_1", "uid-1", 1, 30000)
	// The payload claims the right amount; only the fetched values count.
	body := capturedEvent("pay_1", "order_1", 35800)

	res, err := h.svc.HandleWebhook(context.Background(), body, razorpay.Sign(body, webhookSecret))
	require.NoError(t, err)
	require.Equal(t, WebhookOutcomeRejected, res.Outcome)
	require.ErrorIs(t, res.Err, apperr.ErrAmountMismatch)
	require.Zero(t, h.ledger.activations)
}

func TestHandleWebhook_UsesPaymentOrderLink(t *testing.T) {
	h := newHarness(t)
	h.gateway.seed("order_1", "pay_1", "uid-1", 1, 35800)
	// A payload pointing at another order is only a hint.
	body := capturedEvent("pay_1", "order_other", 35800)

	res, err := h.svc.HandleWebhook(context.Background(), body, razorpay.Sign(body, webhookSecret))
	require.NoError(t, err)
	require.Equal(t, WebhookOutcomeApplied, res.Outcome)
	require.Equal(t, "order_1", h.ledger.processed["pay_1"].OrderID)
}

// The service must tolerate losing the race at the ledger; exactly-once is
// enforced by the store's marker insert, not by this package.
func TestVerifyAndWebhookRaceOnSamePayment(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newHarness(t)
		h.gateway.seed("order_1", "P1", "uid-1", 1, 35800)
		body := capturedEvent("P1", "order_1", 35800)
		sig := razorpay.Sign(body, webhookSecret)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.svc.VerifyPayment(context.Background(), "uid-1", &VerifyPaymentRequest{
				OrderID: "order_1", PaymentID: "P1", Signature: checkoutSignature("order_1", "P1"),
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			res, err := h.svc.HandleWebhook(context.Background(), body, sig)
			if assert.NoError(t, err) {
				assert.Contains(t, []WebhookOutcome{WebhookOutcomeApplied, WebhookOutcomeDuplicate}, res.Outcome)
			}
		}()
		wg.Wait()

		require.Equal(t, 1, h.ledger.activations)
		require.Len(t, h.notifier.notices, 1)
	}
}
