package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/csinmamit/membership/internal/testutil"
	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/types"
)

func TestMembershipStatisticRequest_Validate(t *testing.T) {
	cases := []struct {
		name string
		req  *MembershipStatisticRequest
		ok   bool
	}{
		{"nil", nil, false},
		{"no items", &MembershipStatisticRequest{}, false},
		{"unknown item", &MembershipStatisticRequest{DataItems: []*MembershipStatisticDataItem{{ID: "renewal_success_rate"}}}, false},
		{"bad filter", &MembershipStatisticRequest{
			DataItems: []*MembershipStatisticDataItem{{ID: StatisticTypeDailyRevenue}},
			Filters:   []*types.CommonFilter{{Field: "1=1; drop table users", Operator: types.CommonFilterOperatorEq, Values: []any{1}}},
		}, false},
		{"ok", &MembershipStatisticRequest{
			DataItems: []*MembershipStatisticDataItem{{ID: StatisticTypeDailyRevenue}},
			Filters:   []*types.CommonFilter{{Field: "source", Operator: types.CommonFilterOperatorEq, Values: []any{"webhook"}}},
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestGetMembershipStatistic_DailyActivationCountWithFilter(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	s := New(db)

	mock.ExpectQuery(`SELECT TO_CHAR\(processed_at, 'YYYY-MM-DD'\) as date, count\(\*\) as value FROM "membership_payment" WHERE "source" = \$1 GROUP BY`).
		WithArgs("webhook").
		WillReturnRows(sqlmock.NewRows([]string{"date", "value"}).
			AddRow("2025-06-01", 3).
			AddRow("2025-06-02", 5))

	resp, err := s.GetMembershipStatistic(context.Background(), &MembershipStatisticRequest{
		DataItems: []*MembershipStatisticDataItem{{ID: StatisticTypeDailyActivationCount}},
		Filters:   []*types.CommonFilter{{Field: "source", Operator: types.CommonFilterOperatorEq, Values: []any{"webhook"}}},
	})
	require.NoError(t, err)
	items := resp.DataItems[StatisticTypeDailyActivationCount]
	require.Len(t, items, 2)
	require.Equal(t, int64(5), items[1].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMembershipStatistic_ActiveMemberCountIgnoresFilters(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	s := New(db)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT count\(\*\) as value FROM "users" WHERE role IN \(\$1,\$2\) AND membership_expired = \$3 AND membership_end_date > \$4`).
		WithArgs(string(types.RoleExecutiveMember), string(types.RoleAdmin), false, now).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))

	resp, err := s.GetMembershipStatistic(context.Background(), &MembershipStatisticRequest{
		DataItems: []*MembershipStatisticDataItem{{ID: StatisticTypeActiveMemberCount}},
		Filters:   []*types.CommonFilter{{Field: "currency", Operator: types.CommonFilterOperatorEq, Values: []any{"INR"}}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), resp.DataItems[StatisticTypeActiveMemberCount][0].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}
