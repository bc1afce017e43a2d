// Package schedule derives per-milestone start and end dates from the dates
// and durations written in a proposal body.
//
// Results are advisory display data: every failure is reported through
// Result.Problem instead of an error.
package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bryan-cox/grantledger/internal/milestone"
	"github.com/bryan-cox/grantledger/internal/model"
)

var (
	milestoneRegex = regexp.MustCompile(`Milestone:? (\d+)`)
	startRegex     = regexp.MustCompile(`Starting Date: (\w+) (\d+)(?:st|nd|rd|th)?,? (\d{4})`)
	deliveryRegex  = regexp.MustCompile(`Estimated [Dd]elivery [Dd]ate: (\w+) (\d+)(?:st|nd|rd|th)?,? (\d{4})`)
	durationRegex  = regexp.MustCompile(`Estimated Duration: (\d+(?:\.\d+)?) (hours|weeks|months|week|month|hour|days|day)`)
)

// Date layouts tried in order for "<day> <month> <year>".
var dateLayouts = []string{"2 Jan 2006", "2 January 2006"}

// Output formats for the schedule column.
const (
	startLayout = "2006 Jan 02"
	endLayout   = "January 02, 2006"
)

// Calendar basis used for schedule offsets.
const (
	hoursPerDay   = 24
	daysPerWeek   = 7
	weeksPerMonth = 4
)

// Window is the derived date span of one milestone.
type Window struct {
	Milestone int
	Start     time.Time
	End       time.Time
}

// Result is the outcome of Build. Problem is set when no schedule could be
// derived.
type Result struct {
	Windows []Window
	Problem string
}

// String renders the schedule column.
func (r Result) String() string {
	if len(r.Windows) == 0 {
		if r.Problem == "" {
			return model.NoneMarker
		}
		return r.Problem
	}
	var b strings.Builder
	for _, w := range r.Windows {
		fmt.Fprintf(&b, "Start Date for Milestone %d: %s, ", w.Milestone, w.Start.Format(startLayout))
		fmt.Fprintf(&b, "End Date for Milestone %d: %s; ", w.Milestone, w.End.Format(endLayout))
	}
	return b.String()
}

// maxOffsetHours is the longest offset a time.Duration can hold.
const maxOffsetHours = float64(math.MaxInt64) / float64(time.Hour)

// Offset converts a duration to a calendar offset: hours are literal hours,
// weeks are 7 days and months are 4 weeks. It fails for unknown units and
// for offsets too long for a time.Duration.
func Offset(d model.Duration) (time.Duration, bool) {
	per, ok := unitHours(d.Unit)
	if !ok {
		return 0, false
	}
	hours := d.Value * per
	if hours < 0 || hours >= maxOffsetHours {
		return 0, false
	}
	return time.Duration(hours * float64(time.Hour)), true
}

func unitHours(unit string) (float64, bool) {
	switch strings.ToLower(unit) {
	case "hour", "hours":
		return 1, true
	case "week", "weeks":
		return daysPerWeek * hoursPerDay, true
	case "month", "months":
		return weeksPerMonth * daysPerWeek * hoursPerDay, true
	}
	return 0, false
}

// block is the text of one "Milestone N" section.
type block struct {
	index    int
	start    *time.Time
	delivery *time.Time
	duration *model.Duration
}

// Build derives the schedule for body.
//
// When any milestone section declares its own starting or delivery date,
// each milestone is resolved independently from its own section. Otherwise
// one project-level starting date (or delivery date) anchors a chain of
// milestones laid end to end, forward from the start or backward from the
// delivery.
func Build(body string) Result {
	body = milestone.CleanBody(body)

	blocks, problem := splitBlocks(body)
	if problem != "" {
		return Result{Problem: problem}
	}
	if len(blocks) == 0 {
		return Result{Problem: model.NoneMarker + ": no milestones found"}
	}

	for _, b := range blocks {
		if b.start != nil || b.delivery != nil {
			return perMilestone(blocks)
		}
	}
	return chained(body, blocks)
}

// splitBlocks cuts body into milestone sections. A body without section
// headers falls back to its milestone durations in document order.
func splitBlocks(body string) ([]block, string) {
	headers := milestoneRegex.FindAllStringIndex(body, -1)
	if len(headers) == 0 {
		var blocks []block
		for i, d := range milestone.MilestoneDurations(body) {
			d := d
			blocks = append(blocks, block{index: i + 1, duration: &d})
		}
		return blocks, ""
	}

	blocks := make([]block, 0, len(headers))
	for i, h := range headers {
		end := len(body)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		text := body[h[1]:end]

		b := block{index: i + 1}
		var problem string
		if b.start, problem = findDate(startRegex, text); problem != "" {
			return nil, problem
		}
		if b.delivery, problem = findDate(deliveryRegex, text); problem != "" {
			return nil, problem
		}
		b.duration = findDuration(text)
		blocks = append(blocks, b)
	}
	return blocks, ""
}

func perMilestone(blocks []block) Result {
	var res Result
	for _, b := range blocks {
		if b.duration == nil {
			continue
		}
		offset, ok := Offset(*b.duration)
		if !ok {
			return unschedulable(*b.duration)
		}
		switch {
		case b.start != nil:
			res.Windows = append(res.Windows, Window{Milestone: b.index, Start: *b.start, End: b.start.Add(offset)})
		case b.delivery != nil:
			res.Windows = append(res.Windows, Window{Milestone: b.index, Start: b.delivery.Add(-offset), End: *b.delivery})
		}
	}
	if len(res.Windows) == 0 {
		res.Problem = model.NoneMarker + ": no milestone has both a date and a duration"
	}
	return res
}

func chained(body string, blocks []block) Result {
	start, problem := findDate(startRegex, body)
	if problem != "" {
		return Result{Problem: problem}
	}
	delivery, problem := findDate(deliveryRegex, body)
	if problem != "" {
		return Result{Problem: problem}
	}
	if start == nil && delivery == nil {
		return Result{Problem: model.NoneMarker + ": no starting or delivery date found"}
	}

	offsets := make([]time.Duration, len(blocks))
	var total time.Duration
	for i, b := range blocks {
		if b.duration == nil {
			continue
		}
		o, ok := Offset(*b.duration)
		if !ok {
			return unschedulable(*b.duration)
		}
		if o > math.MaxInt64-total {
			return Result{Problem: "Error: milestone durations are too long to schedule"}
		}
		offsets[i] = o
		total += o
	}

	var res Result
	if start != nil {
		cursor := *start
		for i, b := range blocks {
			if b.duration == nil {
				continue
			}
			end := cursor.Add(offsets[i])
			res.Windows = append(res.Windows, Window{Milestone: b.index, Start: cursor, End: end})
			cursor = end
		}
	} else {
		cursor := *delivery
		for i := len(blocks) - 1; i >= 0; i-- {
			if blocks[i].duration == nil {
				continue
			}
			begin := cursor.Add(-offsets[i])
			res.Windows = append([]Window{{Milestone: blocks[i].index, Start: begin, End: cursor}}, res.Windows...)
			cursor = begin
		}
	}
	if len(res.Windows) == 0 {
		res.Problem = model.NoneMarker + ": no milestone durations found"
	}
	return res
}

func unschedulable(d model.Duration) Result {
	if _, ok := unitHours(d.Unit); !ok {
		return Result{Problem: fmt.Sprintf("Error: invalid duration unit %q", d.Unit)}
	}
	return Result{Problem: fmt.Sprintf("Error: duration %q is too long to schedule", d.String())}
}

// findDate returns the first date matched by re in text, nil if none. An
// unparsable date yields a problem string.
func findDate(re *regexp.Regexp, text string) (*time.Time, string) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil, ""
	}
	raw := fmt.Sprintf("%s %s %s", m[2], m[1], m[3])
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, ""
		}
	}
	return nil, fmt.Sprintf("Error: invalid date %q", m[0])
}

// findDuration returns the first milestone duration in text, skipping totals.
func findDuration(text string) *model.Duration {
	for _, loc := range durationRegex.FindAllStringSubmatchIndex(text, -1) {
		if strings.HasSuffix(text[:loc[0]], "Total ") {
			continue
		}
		v, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		return &model.Duration{Value: v, Unit: text[loc[4]:loc[5]]}
	}
	return nil
}
