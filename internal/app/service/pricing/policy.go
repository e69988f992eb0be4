package pricing

import (
	"fmt"
	"sort"

	"go.uber.org/fx"

	"github.com/csinmamit/membership/pkg/apperr"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/types"
)

const bpsDenominator = 10000

// Quote is the authoritative price of a plan, in major currency units.
type Quote struct {
	Years       int   `json:"years"`
	BasePrice   int64 `json:"base_price"`
	TotalPrice  int64 `json:"total_price"`
	PlatformFee int64 `json:"platform_fee"`
}

// MinorTotal is the total in the gateway's minor units (paise).
func (q *Quote) MinorTotal() int64 {
	return q.TotalPrice * 100
}

// Policy is the only place a membership total is computed.
type Policy struct {
	plans  map[int]int64
	feeBps int64
}

func NewPolicy(plans []*types.MembershipPlan, feeBps int64) (*Policy, error) {
	if feeBps < 0 || feeBps >= bpsDenominator {
		return nil, fmt.Errorf("fee rate out of range: %d bps", feeBps)
	}
	p := &Policy{plans: make(map[int]int64, len(plans)), feeBps: feeBps}
	for _, plan := range plans {
		p.plans[plan.Years] = plan.BasePrice
	}
	return p, nil
}

func NewPolicyFromConfig(cfg *cfgpkg.Config) (*Policy, error) {
	return NewPolicy(cfg.Membership.Plans, cfg.Membership.FeeRateBps)
}

// Quote returns the price for a plan of the given length. The total is
// ceil(base / (1 - fee)), computed in integers: 350 at 2% is 358, 650 is 664.
func (p *Policy) Quote(years int) (*Quote, error) {
	base, ok := p.plans[years]
	if !ok {
		return nil, fmt.Errorf("%d-year plan: %w", years, apperr.ErrInvalidPlan)
	}
	d := int64(bpsDenominator) - p.feeBps
	total := (base*bpsDenominator + d - 1) / d
	return &Quote{
		Years:       years,
		BasePrice:   base,
		TotalPrice:  total,
		PlatformFee: total - base,
	}, nil
}

// Plans lists every offered plan in ascending length.
func (p *Policy) Plans() []*Quote {
	years := make([]int, 0, len(p.plans))
	for y := range p.plans {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]*Quote, 0, len(years))
	for _, y := range years {
		q, _ := p.Quote(y)
		out = append(out, q)
	}
	return out
}

var Module = fx.Options(
	fx.Provide(NewPolicyFromConfig),
)
