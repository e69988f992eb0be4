package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/types"
)

var chapterPlans = []*types.MembershipPlan{
	{Years: 1, BasePrice: 350},
	{Years: 2, BasePrice: 650},
	{Years: 3, BasePrice: 900},
}

func TestQuote_ChapterPlans(t *testing.T) {
	p, err := NewPolicy(chapterPlans, 200)
	require.NoError(t, err)

	cases := []struct {
		years            int
		base, total, fee int64
	}{
		{1, 350, 358, 8},
		{2, 650, 664, 14},
		{3, 900, 919, 19},
	}
	for _, tc := range cases {
		q, err := p.Quote(tc.years)
		require.NoError(t, err)
		require.Equal(t, tc.base, q.BasePrice)
		require.Equal(t, tc.total, q.TotalPrice)
		require.Equal(t, tc.fee, q.PlatformFee)
		require.Equal(t, tc.total*100, q.MinorTotal())
	}
}

func TestQuote_MatchesCeilFormula(t *testing.T) {
	for _, bps := range []int64{0, 1, 200, 250, 999, 5000} {
		for base := int64(1); base <= 2000; base += 7 {
			p, err := NewPolicy([]*types.MembershipPlan{{Years: 1, BasePrice: base}}, bps)
			require.NoError(t, err)
			q, err := p.Quote(1)
			require.NoError(t, err)

			want := int64(math.Ceil(float64(base) * 10000 / float64(10000-bps)))
			require.Equal(t, want, q.TotalPrice, "base=%d bps=%d", base, bps)
			require.Equal(t, q.TotalPrice-base, q.PlatformFee)
		}
	}
}

func TestQuote_InvalidPlan(t *testing.T) {
	p, err := NewPolicy(chapterPlans, 200)
	require.NoError(t, err)
	for _, years := range []int{0, -1, 4, 10} {
		_, err := p.Quote(years)
		require.ErrorIs(t, err, apperr.ErrInvalidPlan)
	}
}

func TestNewPolicy_RejectsFeeOutOfRange(t *testing.T) {
	_, err := NewPolicy(chapterPlans, 10000)
	require.Error(t, err)
	_, err = NewPolicy(chapterPlans, -1)
	require.Error(t, err)
}

func TestPlans_Sorted(t *testing.T) {
	p, err := NewPolicy([]*types.MembershipPlan{chapterPlans[2], chapterPlans[0], chapterPlans[1]}, 200)
	require.NoError(t, err)
	quotes := p.Plans()
	require.Len(t, quotes, 3)
	require.Equal(t, []int{1, 2, 3}, []int{quotes[0].Years, quotes[1].Years, quotes[2].Years})
}
