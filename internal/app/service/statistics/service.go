package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/csinmamit/membership/internal/models"
	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/types"
)

type StatisticType string

const (
	// Daily counts and revenue over processed payments
	StatisticTypeDailyActivationCount StatisticType = "daily_activation_count"
	StatisticTypeDailyRevenue         StatisticType = "daily_revenue"
	StatisticTypeTotalRevenue         StatisticType = "total_revenue"

	// Member headcount
	StatisticTypeActiveMemberCount           StatisticType = "active_member_count"
	StatisticTypeDailyAccumulatedMemberCount StatisticType = "daily_accumulated_member_count"
	StatisticTypePlanDistribution            StatisticType = "plan_distribution"
)

// filterFields are the membership_payment columns callers may filter on.
var filterFields = []string{"source", "selected_years", "currency", "processed_at"}

// Statistics that read membership_payment row by row honor filters. The rest
// are whole-table aggregates and ignore them.
var filterable = []StatisticType{
	StatisticTypeDailyActivationCount,
	StatisticTypeDailyRevenue,
	StatisticTypePlanDistribution,
}

type MembershipStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type MembershipStatisticRequest struct {
	Filters   []*types.CommonFilter          `json:"filters"`
	DataItems []*MembershipStatisticDataItem `json:"data_items"`
}

func (r *MembershipStatisticRequest) Validate() error {
	if r == nil || len(r.DataItems) == 0 {
		return fmt.Errorf("%w: data_items is required", apperr.ErrInvalidInput)
	}
	for _, di := range r.DataItems {
		if di == nil || !lo.Contains(allTypes, di.ID) {
			return fmt.Errorf("%w: invalid data item id", apperr.ErrInvalidInput)
		}
	}
	if err := types.ValidateFields(r.Filters, filterFields); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	return nil
}

func (r *MembershipStatisticRequest) where(st StatisticType) clause.Where {
	if !lo.Contains(filterable, st) {
		return clause.Where{Exprs: []clause.Expression{types.FiltersAnd(nil)}}
	}
	return clause.Where{Exprs: []clause.Expression{types.FiltersAnd(r.Filters)}}
}

var allTypes = []StatisticType{
	StatisticTypeDailyActivationCount,
	StatisticTypeDailyRevenue,
	StatisticTypeTotalRevenue,
	StatisticTypeActiveMemberCount,
	StatisticTypeDailyAccumulatedMemberCount,
	StatisticTypePlanDistribution,
}

type MembershipStatisticResponseDataItem struct {
	Date   string `json:"date,omitempty"`
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
}

type MembershipStatisticResponse struct {
	DataItems map[StatisticType][]MembershipStatisticResponseDataItem `json:"data_items"`
}

// Service answers admin reporting queries.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Service { return &Service{db: db, now: time.Now} }

func (s *Service) paymentTable(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table((models.MembershipPayment{}).TableName())
}

func (s *Service) getDailyActivationCount(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.paymentTable(ctx).
		Select("TO_CHAR(processed_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(request.where(StatisticTypeDailyActivationCount)).
		Group("TO_CHAR(processed_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getDailyRevenue reports total charged (value) and platform fee (value2) per day and currency.
func (s *Service) getDailyRevenue(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.paymentTable(ctx).
		Select("TO_CHAR(processed_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount_total) as value, sum(platform_fee) as value2").
		Where(request.where(StatisticTypeDailyRevenue)).
		Group("TO_CHAR(processed_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getTotalRevenue is the running revenue total per currency for every day in range.
func (s *Service) getTotalRevenue(ctx context.Context, _ *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(processed_at)) as min_date, MAX(DATE(processed_at)) as max_date
    FROM membership_payment
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM membership_payment
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
revenue_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(p.amount_total), 0) as value
    FROM date_currency_combinations dc
    LEFT JOIN membership_payment p
      ON TO_CHAR(p.processed_at, 'YYYY-MM-DD') = dc.date
     AND p.currency = dc.label
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.value) as value
FROM revenue_date d
LEFT JOIN revenue_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getActiveMemberCount(ctx context.Context, _ *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.User{}).TableName()).
		Select("count(*) as value").
		Where("role IN ?", []types.Role{types.RoleExecutiveMember, types.RoleAdmin}).
		Where("membership_expired = ?", false).
		Where("membership_end_date > ?", s.now())
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyAccumulatedMemberCount(ctx context.Context, _ *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(processed_at)) as min_date, MAX(DATE(processed_at)) as max_date FROM membership_payment
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
user_id_date AS (
    SELECT user_id, DATE(processed_at) as date FROM membership_payment
)
SELECT TO_CHAR(d.date, 'YYYY-MM-DD') as date, COUNT(DISTINCT s.user_id) as value
FROM distinct_dates d
LEFT JOIN user_id_date s ON s.date <= d.date
GROUP BY d.date
ORDER BY d.date DESC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getPlanDistribution(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.paymentTable(ctx).
		Select("CAST(selected_years AS TEXT) as label, count(*) as value, sum(amount_total) as value2").
		Where(request.where(StatisticTypePlanDistribution)).
		Group("selected_years").
		Order("selected_years")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getMembershipStatistic(ctx context.Context, request *MembershipStatisticRequest, dataItem *MembershipStatisticDataItem) ([]MembershipStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyActivationCount:
		return s.getDailyActivationCount(ctx, request)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, request)
	case StatisticTypeTotalRevenue:
		return s.getTotalRevenue(ctx, request)
	case StatisticTypeActiveMemberCount:
		return s.getActiveMemberCount(ctx, request)
	case StatisticTypeDailyAccumulatedMemberCount:
		return s.getDailyAccumulatedMemberCount(ctx, request)
	case StatisticTypePlanDistribution:
		return s.getPlanDistribution(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

func (s *Service) GetMembershipStatistic(ctx context.Context, request *MembershipStatisticRequest) (*MembershipStatisticResponse, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []MembershipStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *MembershipStatisticDataItem) {
			defer wg.Done()
			res, err := s.getMembershipStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []MembershipStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]MembershipStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &MembershipStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
