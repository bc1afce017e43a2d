package milestone

import (
	"fmt"
	"log/slog"

	"github.com/bryan-cox/grantledger/internal/model"
)

// Engine turns proposal bodies into milestone plans using a fixed pricing table.
type Engine struct {
	pricing Pricing
}

// NewEngine validates pricing and returns an Engine bound to it.
func NewEngine(pricing Pricing) (*Engine, error) {
	if err := pricing.Validate(); err != nil {
		return nil, err
	}
	return &Engine{pricing: pricing}, nil
}

// Pricing returns the rate table the engine was built with.
func (e *Engine) Pricing() Pricing {
	return e.pricing
}

// Parse extracts and prices the milestones of a proposal body. The plan is
// always returned; the error is non-nil only when the declared total hours
// disagree with the milestones.
//
// Durations and FTEs are paired by position. When the counts differ the
// longer list is truncated and a warning is recorded on the plan.
func (e *Engine) Parse(title, body string, tier model.Tier) (model.MilestonePlan, error) {
	ex := Extract(body)
	rate := e.pricing.Rate(tier)

	plan := model.MilestonePlan{
		TotalDuration: ex.TotalDuration,
		TotalFTE:      ex.TotalFTE,
		DeclaredHours: ex.DeclaredHours,
		Rate:          rate,
	}

	n := len(ex.Durations)
	if len(ex.FTEs) != n {
		warning := fmt.Sprintf("found %d milestone durations but %d FTE values", len(ex.Durations), len(ex.FTEs))
		plan.Warnings = append(plan.Warnings, warning)
		slog.Warn("milestone duration and FTE counts differ", "issue", title,
			"durations", len(ex.Durations), "ftes", len(ex.FTEs))
		n = min(n, len(ex.FTEs))
	}

	var (
		fragments = make([]string, 0, n)
		costs     = make([]model.Field[float64], 0, n)
		total     float64
		complete  = n > 0
	)
	for i := 0; i < n; i++ {
		d := ex.Durations[i]
		fte := parseFTE(ex.FTEs[i])
		hours := ToHours(d)
		cost := Cost(hours, fte, rate)

		h, okH := hours.Get()
		f, okF := fte.Get()
		if okH && okF {
			total += h * f
		} else {
			complete = false
		}

		fragment := EquationFragment(d, ex.FTEs[i], rate)
		plan.Milestones = append(plan.Milestones, model.Milestone{
			Duration: d,
			FTE:      fte,
			Hours:    hours,
			Cost:     cost,
			Equation: fragment,
		})
		fragments = append(fragments, fragment)
		costs = append(costs, cost)
	}

	plan.ComputedHours = model.Unresolved[float64]()
	if complete {
		plan.ComputedHours = model.Resolved(total)
	}
	plan.Equation = FormatEquation(fragments)
	plan.CostTranscript = FormatCostTranscript(costs)
	plan.TotalCost = TotalCost(costs, rate)

	err := Validate(title, plan.DeclaredHours, plan.ComputedHours)
	plan.Consistent = err == nil
	return plan, err
}
