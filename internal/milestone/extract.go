// Package milestone extracts duration, FTE and complexity fields from
// proposal bodies and turns them into a priced, validated milestone plan.
package milestone

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bryan-cox/grantledger/internal/model"
)

// Patterns for the proposal template. Bodies are cleaned before matching.
var (
	emphasisRegex  = regexp.MustCompile(`\*\*`)
	lineBreakRegex = regexp.MustCompile(`\r\n|\\r\\n`)

	totalDurationRegex = regexp.MustCompile(`Total Estimated Duration: (\d+) (hours|weeks|months|week|month|hour)`)
	totalFTERegex      = regexp.MustCompile(`Full-time equivalent \(FTE\):\s*([\d.]+)`)
	totalHoursRegex    = regexp.MustCompile(`Total Estimated Working Hours: (\d+) (hours|hrs)`)
	complexityRegex    = regexp.MustCompile(`Project Complexity:\s*(\w+)`)

	durationRegex = regexp.MustCompile(`Estimated Duration:\s*(\d+(?:\.\d+)?)\s*(hours|weeks|months|week|month|hour|days|day)`)
	fteRegex      = regexp.MustCompile(`FTE:\s*([\d.]+)`)
)

// totalPrefix marks a duration as the project total rather than a milestone.
const totalPrefix = "Total "

// CleanBody strips emphasis markup and turns raw or escaped CRLF sequences
// into spaces so that values on adjacent lines do not run together.
func CleanBody(body string) string {
	body = emphasisRegex.ReplaceAllString(body, "")
	return lineBreakRegex.ReplaceAllString(body, " ")
}

// Extraction holds the raw fields pulled out of a cleaned body.
type Extraction struct {
	TotalDuration model.Field[model.Duration]
	TotalFTE      model.Field[string]
	DeclaredHours model.Field[int]
	Durations     []model.Duration
	FTEs          []string
}

// Extract runs every pattern over body. Missing fields stay unresolved.
func Extract(body string) Extraction {
	body = CleanBody(body)

	ex := Extraction{
		TotalDuration: model.Unresolved[model.Duration](),
		TotalFTE:      model.Unresolved[string](),
		DeclaredHours: model.Unresolved[int](),
	}

	if m := totalDurationRegex.FindStringSubmatch(body); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			ex.TotalDuration = model.Resolved(model.Duration{Value: v, Unit: m[2]})
		}
	}
	if m := totalFTERegex.FindStringSubmatch(body); m != nil {
		ex.TotalFTE = model.Resolved(m[1])
	}
	if m := totalHoursRegex.FindStringSubmatch(body); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			ex.DeclaredHours = model.Resolved(v)
		}
	}

	ex.Durations = MilestoneDurations(body)
	for _, m := range fteRegex.FindAllStringSubmatch(body, -1) {
		ex.FTEs = append(ex.FTEs, m[1])
	}
	return ex
}

// MilestoneDurations returns every "Estimated Duration" in document order,
// skipping the ones that belong to a "Total Estimated Duration" line.
func MilestoneDurations(body string) []model.Duration {
	var out []model.Duration
	for _, loc := range durationRegex.FindAllStringSubmatchIndex(body, -1) {
		if strings.HasSuffix(body[:loc[0]], totalPrefix) {
			continue
		}
		v, err := strconv.ParseFloat(body[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		out = append(out, model.Duration{Value: v, Unit: body[loc[4]:loc[5]]})
	}
	return out
}

// ExtractComplexity returns the tier named after "Project Complexity:".
func ExtractComplexity(body string) model.Tier {
	m := complexityRegex.FindStringSubmatch(CleanBody(body))
	if m == nil {
		return model.TierUnknown
	}
	return model.ParseTier(m[1])
}

// parseFTE converts an FTE token. A trailing sentence period is tolerated.
func parseFTE(raw string) model.Field[float64] {
	v, err := strconv.ParseFloat(strings.TrimRight(raw, "."), 64)
	if err != nil || v < 0 {
		return model.Unresolved[float64]()
	}
	return model.Resolved(v)
}
