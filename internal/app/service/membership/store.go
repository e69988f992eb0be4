package membership

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/csinmamit/membership/internal/models"
	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/tool"
	"github.com/csinmamit/membership/pkg/types"
)

// Store persists membership state and processed-payment markers.
type Store interface {
	// Apply inserts marker and merges user in one transaction. It reports
	// applied=false, and writes nothing, when a marker for the payment exists.
	Apply(ctx context.Context, marker *models.MembershipPayment, user *models.User) (applied bool, before *models.User, err error)
	IsProcessed(ctx context.Context, paymentID string) (bool, error)
	// GetUser returns nil, nil when the subject has no record.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// ExpireMemberships demotes every membership that ended before now and
	// returns the rows as they were before the change.
	ExpireMemberships(ctx context.Context, now time.Time) ([]*models.User, error)
	ListPayments(ctx context.Context, req *ListPaymentsRequest) (*ListPaymentsResponse, error)
	SaveLog(ctx context.Context, log *models.MembershipLog)
}

// membershipColumns are the only user columns this service writes on merge.
var membershipColumns = []string{
	"membership_type",
	"membership_start_date",
	"membership_end_date",
	"membership_expired",
	"membership_expired_at",
	"payment_details",
	"updated_at",
}

var paymentFilterFields = []string{
	"payment_id", "order_id", "user_id", "selected_years", "amount_total", "currency", "source", "processed_at",
}

type ListPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ListPaymentsResponse struct {
	Items []*models.MembershipPayment `json:"items"`
	Total int64                       `json:"total"`
}

type GormStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB, log *zap.SugaredLogger) *GormStore {
	return &GormStore{db: db, log: log}
}

func (s *GormStore) Apply(ctx context.Context, marker *models.MembershipPayment, user *models.User) (bool, *models.User, error) {
	var applied bool
	var before *models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).Create(marker)
		if res.Error != nil {
			return fmt.Errorf("failed to insert payment marker: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var existing []*models.User
		if err := tx.Where("id = ?", user.ID).Limit(1).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if len(existing) > 0 {
			before = existing[0]
		}

		updates := clause.AssignmentColumns(membershipColumns)
		updates = append(updates, clause.Assignment{
			Column: clause.Column{Name: "role"},
			Value:  gorm.Expr("CASE WHEN users.role = ? THEN users.role ELSE excluded.role END", types.RoleAdmin),
		})
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: updates,
		}).Create(user).Error; err != nil {
			return fmt.Errorf("failed to merge user membership: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return applied, before, nil
}

func (s *GormStore) IsProcessed(ctx context.Context, paymentID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.MembershipPayment{}).
		Where("payment_id = ?", paymentID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check payment marker: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var rows []*models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *GormStore) ExpireMemberships(ctx context.Context, now time.Time) ([]*models.User, error) {
	var expired []*models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("membership_end_date < ? AND membership_expired = ? AND role IN ?",
				now, false, []types.Role{types.RoleExecutiveMember, types.RoleAdmin}).
			Find(&expired).Error; err != nil {
			return fmt.Errorf("failed to find expired memberships: %w", err)
		}
		if len(expired) == 0 {
			return nil
		}
		ids := make([]string, 0, len(expired))
		for _, u := range expired {
			ids = append(ids, u.ID)
		}
		if err := tx.Model(&models.User{}).Where("id IN ?", ids).Updates(map[string]any{
			"role":                  gorm.Expr("CASE WHEN role = ? THEN ? ELSE role END", types.RoleExecutiveMember, types.RoleUser),
			"membership_expired":    true,
			"membership_expired_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to expire memberships: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (s *GormStore) ListPayments(ctx context.Context, req *ListPaymentsRequest) (*ListPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFields(req.Filters, paymentFilterFields); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if req.Size <= 0 || req.Size > 200 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.MembershipPayment{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count membership payments: %w", err)
	}

	sortBy := "processed_at"
	for _, f := range paymentFilterFields {
		if f == req.SortBy {
			sortBy = f
		}
	}
	q := tx.Session(&gorm.Session{}).Limit(req.Size).Offset(req.From).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"})

	var rows []*models.MembershipPayment
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list membership payments: %w", err)
	}
	return &ListPaymentsResponse{Items: rows, Total: total}, nil
}

// SaveLog writes a membership change log asynchronously; errors are logged but not returned.
func (s *GormStore) SaveLog(ctx context.Context, log *models.MembershipLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save membership log: %v", err)
		}
	}()
}
