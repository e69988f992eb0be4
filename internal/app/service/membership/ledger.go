package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/csinmamit/membership/internal/models"
	"github.com/csinmamit/membership/pkg/apperr"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/metrics"
	"github.com/csinmamit/membership/pkg/types"
)

// Activation is a verified payment ready to be applied. Every field comes
// from the gateway or the pricing policy, never from the client.
type Activation struct {
	SubjectID   string
	Years       int
	OrderID     string
	PaymentID   string
	BasePrice   int64
	PlatformFee int64
	TotalPrice  int64
	Currency    string
	Source      types.PaymentSource
}

func (a *Activation) validate() error {
	switch {
	case a.SubjectID == "":
		return errors.New("missing subject id")
	case a.PaymentID == "" || a.OrderID == "":
		return errors.New("missing payment or order id")
	case a.Years <= 0:
		return fmt.Errorf("invalid plan length %d", a.Years)
	}
	return nil
}

type ActivationResult struct {
	// AlreadyProcessed is set when another call applied this payment first.
	AlreadyProcessed bool
	MembershipType   string
	StartDate        time.Time
	EndDate          time.Time
	User             *models.User
}

// Status is the read-time view of a subject's membership.
type Status struct {
	UserID         string                 `json:"user_id"`
	Active         bool                   `json:"active"`
	Role           types.Role             `json:"role"`
	MembershipType string                 `json:"membership_type,omitempty"`
	StartDate      *time.Time             `json:"start_date,omitempty"`
	EndDate        *time.Time             `json:"end_date,omitempty"`
	Expired        bool                   `json:"expired"`
	DaysRemaining  int                    `json:"days_remaining"`
	PaymentDetails *models.PaymentDetails `json:"payment_details,omitempty"`
}

// Ledger applies verified payments to membership state exactly once per payment id.
type Ledger struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	log   *zap.SugaredLogger
}

func NewLedger(store Store, loc *time.Location, log *zap.SugaredLogger) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{store: store, loc: loc, now: time.Now, log: log}
}

func NewLedgerFromConfig(store Store, cfg *cfgpkg.Config, log *zap.SugaredLogger) *Ledger {
	return NewLedger(store, cfg.Location(), log)
}

// EndDate is local midnight of start's calendar date, years later. A Feb 29
// start lands on Mar 1.
func EndDate(start time.Time, years int, loc *time.Location) time.Time {
	local := start.In(loc)
	y, m, d := local.Date()
	return time.Date(y+years, m, d, 0, 0, 0, 0, loc)
}

func Label(years int, end time.Time) string {
	return fmt.Sprintf("%d-Year Executive Membership (Until %s)", years, end.Format("January 2, 2006"))
}

func (l *Ledger) Activate(ctx context.Context, a Activation) (*ActivationResult, error) {
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("activate membership: %v: %w", err, apperr.ErrInvalidInput)
	}
	now := l.now().In(l.loc)
	end := EndDate(now, a.Years, l.loc)
	label := Label(a.Years, end)

	user := &models.User{
		ID:                  a.SubjectID,
		Role:                types.RoleExecutiveMember,
		MembershipType:      label,
		MembershipStartDate: &now,
		MembershipEndDate:   &end,
		PaymentDetails: datatypes.NewJSONType(&models.PaymentDetails{
			OrderID:     a.OrderID,
			PaymentID:   a.PaymentID,
			AmountBase:  a.BasePrice,
			PlatformFee: a.PlatformFee,
			AmountTotal: a.TotalPrice,
			Currency:    a.Currency,
			PaymentDate: now,
			Source:      a.Source,
		}),
	}
	marker := &models.MembershipPayment{
		PaymentID:     a.PaymentID,
		OrderID:       a.OrderID,
		UserID:        a.SubjectID,
		SelectedYears: a.Years,
		AmountBase:    a.BasePrice,
		PlatformFee:   a.PlatformFee,
		AmountTotal:   a.TotalPrice,
		Currency:      a.Currency,
		Source:        a.Source,
		ProcessedAt:   now,
	}

	applied, before, err := l.store.Apply(ctx, marker, user)
	if err != nil {
		return nil, fmt.Errorf("activate membership for payment %s: %w: %w", a.PaymentID, apperr.ErrLedgerWrite, err)
	}
	lg := logctx.FromCtx(ctx, l.log).With("payment_id", a.PaymentID, "order_id", a.OrderID, "user_id", a.SubjectID, "source", a.Source)
	if !applied {
		lg.Infow("membership_activation_skipped", "reason", "already_processed")
		return &ActivationResult{AlreadyProcessed: true}, nil
	}

	if before.IsAdmin() {
		user.Role = types.RoleAdmin
	}
	metrics.MembershipActivations.WithLabelValues(string(a.Source)).Inc()
	lg.Infow("membership_activated", "years", a.Years, "end_date", end.Format(time.DateOnly))

	l.store.SaveLog(ctx, &models.MembershipLog{
		UserID:    a.SubjectID,
		Reason:    types.MembershipChangeReasonPurchase,
		PaymentID: &a.PaymentID,
		Before:    datatypes.NewJSONType(before),
		After:     datatypes.NewJSONType(user),
		Extra:     datatypes.JSONMap{"source": string(a.Source), "trace_id": logctx.TraceID(ctx)},
	})

	return &ActivationResult{
		MembershipType: label,
		StartDate:      now,
		EndDate:        end,
		User:           user,
	}, nil
}

func (l *Ledger) IsProcessed(ctx context.Context, paymentID string) (bool, error) {
	ok, err := l.store.IsProcessed(ctx, paymentID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", apperr.ErrLedgerWrite, err)
	}
	return ok, nil
}

// GetMembership evaluates expiry at read time; the stored role may lag until
// the next sweep.
func (l *Ledger) GetMembership(ctx context.Context, subjectID string) (*Status, error) {
	u, err := l.store.GetUser(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	st := &Status{UserID: subjectID, Role: types.RoleUser}
	if u == nil {
		return st, nil
	}
	now := l.now()
	st.Role = u.Role
	st.MembershipType = u.MembershipType
	st.StartDate = u.MembershipStartDate
	st.EndDate = u.MembershipEndDate
	st.PaymentDetails = u.PaymentDetails.Data()
	st.Active = u.ActiveAt(now)
	st.Expired = u.MembershipEndDate != nil && !st.Active
	if st.Active {
		st.DaysRemaining = int(u.MembershipEndDate.Sub(now).Hours() / 24)
	}
	return st, nil
}

// SweepExpired demotes executive members whose membership has ended and
// returns how many records changed.
func (l *Ledger) SweepExpired(ctx context.Context) (int, error) {
	now := l.now()
	expired, err := l.store.ExpireMemberships(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, before := range expired {
		after := *before
		after.MembershipExpired = true
		after.MembershipExpiredAt = &now
		if after.Role == types.RoleExecutiveMember {
			after.Role = types.RoleUser
		}
		l.store.SaveLog(ctx, &models.MembershipLog{
			UserID: before.ID,
			Reason: types.MembershipChangeReasonExpired,
			Before: datatypes.NewJSONType(before),
			After:  datatypes.NewJSONType(&after),
			Extra:  datatypes.JSONMap{"trace_id": logctx.TraceID(ctx)},
		})
	}
	logctx.FromCtx(ctx, l.log).Infow("membership_sweep_completed", "updated", len(expired))
	return len(expired), nil
}

func (l *Ledger) ListPayments(ctx context.Context, req *ListPaymentsRequest) (*ListPaymentsResponse, error) {
	return l.store.ListPayments(ctx, req)
}

// IsAdmin reports whether the subject holds the admin role.
func (l *Ledger) IsAdmin(ctx context.Context, subjectID string) (bool, error) {
	u, err := l.store.GetUser(ctx, subjectID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin(), nil
}

var Module = fx.Options(
	fx.Provide(
		NewGormStore,
		func(s *GormStore) Store { return s },
		NewLedgerFromConfig,
	),
)
