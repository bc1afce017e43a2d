package milestone

import (
	"strings"

	"github.com/bryan-cox/grantledger/internal/model"
)

// Working-time basis for cost computation.
const (
	HoursPerDay   = 8
	DaysPerWeek   = 5
	WeeksPerMonth = 4
)

var hoursPerUnit = map[string]float64{
	"hour":   1,
	"hours":  1,
	"day":    HoursPerDay,
	"days":   HoursPerDay,
	"week":   DaysPerWeek * HoursPerDay,
	"weeks":  DaysPerWeek * HoursPerDay,
	"month":  WeeksPerMonth * DaysPerWeek * HoursPerDay,
	"months": WeeksPerMonth * DaysPerWeek * HoursPerDay,
}

// ToHours converts a duration into working hours. Unknown units and
// negative values are unresolved.
//
// The scheduler uses a calendar basis instead (7-day weeks, 4-week months),
// see schedule.Offset.
func ToHours(d model.Duration) model.Field[float64] {
	factor, ok := hoursPerUnit[strings.ToLower(d.Unit)]
	if !ok || d.Value < 0 {
		return model.Unresolved[float64]()
	}
	return model.Resolved(d.Value * factor)
}
