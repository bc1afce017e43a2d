package milestone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bryan-cox/grantledger/internal/model"
)

// ErrInvalidPricing is returned when a tier has no positive hourly rate.
var ErrInvalidPricing = errors.New("invalid pricing")

// Pricing holds the hourly rate for each complexity tier.
type Pricing struct {
	Easy   float64 `yaml:"easy"`
	Medium float64 `yaml:"medium"`
	Hard   float64 `yaml:"hard"`
}

// Validate requires every rate to be positive.
func (p Pricing) Validate() error {
	for _, r := range []struct {
		tier model.Tier
		rate float64
	}{
		{model.TierEasy, p.Easy},
		{model.TierMedium, p.Medium},
		{model.TierHard, p.Hard},
	} {
		if !(r.rate > 0) {
			return fmt.Errorf("%w: %s rate must be positive, got %v", ErrInvalidPricing, r.tier, r.rate)
		}
	}
	return nil
}

// Rate returns the hourly rate for tier, unresolved for an unknown tier.
func (p Pricing) Rate(tier model.Tier) model.Field[float64] {
	switch tier {
	case model.TierEasy:
		return model.Resolved(p.Easy)
	case model.TierMedium:
		return model.Resolved(p.Medium)
	case model.TierHard:
		return model.Resolved(p.Hard)
	}
	return model.Unresolved[float64]()
}

// Cost is hours × FTE × rate. Any unresolved input makes the cost unresolved.
func Cost(hours, fte, rate model.Field[float64]) model.Field[float64] {
	h, ok1 := hours.Get()
	f, ok2 := fte.Get()
	r, ok3 := rate.Get()
	if !ok1 || !ok2 || !ok3 {
		return model.Unresolved[float64]()
	}
	return model.Resolved(h * f * r)
}

// TotalCost sums the resolved milestone costs. Without a rate there is
// nothing to sum and the total is unresolved.
func TotalCost(costs []model.Field[float64], rate model.Field[float64]) model.Field[float64] {
	if !rate.OK() {
		return model.Unresolved[float64]()
	}
	var total float64
	for _, c := range costs {
		if v, ok := c.Get(); ok {
			total += v
		}
	}
	return model.Resolved(total)
}

// EquationFragment renders "(<value> <unit> * <fte> FTE) * $<rate>".
func EquationFragment(d model.Duration, fte string, rate model.Field[float64]) string {
	return fmt.Sprintf("(%s * %s FTE) * $%s", d, fte, rate.Format(model.FormatNumber))
}

// FormatEquation joins fragments with " + ".
func FormatEquation(fragments []string) string {
	if len(fragments) == 0 {
		return model.ErrorMarker
	}
	return strings.Join(fragments, " + ")
}

// FormatCostTranscript renders "m1 = $x; m2 = $y; ".
func FormatCostTranscript(costs []model.Field[float64]) string {
	var b strings.Builder
	for i, c := range costs {
		fmt.Fprintf(&b, "m%d = $%s; ", i+1, c.Format(model.FormatNumber))
	}
	return b.String()
}
