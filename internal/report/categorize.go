// Package report assembles classified tasks and proposals into output rows
// and aggregate metrics.
package report

import (
	"github.com/bryan-cox/grantledger/internal/model"
)

// Source is the classified view the report is built from.
type Source interface {
	Tasks() []model.Task
	Proposals(taskURL string) []model.Proposal
}

// Header is the fixed column schema of a report.
var Header = []string{
	"Type",
	"Title",
	"Issue Creator",
	"Assignee (Grant Liaison or WIP Task Assignee)",
	"Task Link",
	"Project Complexity",
	"Linked Proposal",
	"Proposal Link",
	"Applicant",
	"Total Duration",
	"Total FTE",
	"Total Working Hours",
	"Formatted Equation",
	"Pricing Per Hours",
	"Cost Per Milestone",
	"Total Cost",
	"Start/End Date",
	"Deliverable Repo Available",
}

// Row is one output line. Every field is already formatted for display.
type Row struct {
	Type             string
	Title            string
	Creator          string
	Assignee         string
	TaskURL          string
	Complexity       string
	HasProposal      string
	ProposalURL      string
	ProposalCreator  string
	TotalDuration    string
	TotalFTE         string
	TotalHours       string
	Equation         string
	Price            string
	CostPerMilestone string
	TotalCost        string
	Schedule         string
	DeliverableRepo  string
}

// Values returns the row in Header order.
func (r Row) Values() []string {
	return []string{
		r.Type,
		r.Title,
		r.Creator,
		r.Assignee,
		r.TaskURL,
		r.Complexity,
		r.HasProposal,
		r.ProposalURL,
		r.ProposalCreator,
		r.TotalDuration,
		r.TotalFTE,
		r.TotalHours,
		r.Equation,
		r.Price,
		r.CostPerMilestone,
		r.TotalCost,
		r.Schedule,
		r.DeliverableRepo,
	}
}

// RowType labels a row of a task that has proposalCount proposals.
func RowType(c model.Category, proposalCount int) string {
	switch {
	case proposalCount == 0:
		return c.String()
	case proposalCount == 1 && c.Closed:
		return "Closed Task & Closed Proposal"
	case proposalCount == 1:
		return "Task & Proposal"
	case c.Closed:
		return "Closed Task & Competing Proposal"
	default:
		return "Task & Competing Proposal"
	}
}

// Assemble emits one row per proposal of every task, or a single row with
// NONE proposal columns for a task without proposals.
func Assemble(src Source) []Row {
	var rows []Row
	for _, task := range src.Tasks() {
		proposals := src.Proposals(task.URL)
		if len(proposals) == 0 {
			rows = append(rows, taskOnlyRow(task))
			continue
		}
		rowType := RowType(task.Category, len(proposals))
		for _, p := range proposals {
			rows = append(rows, proposalRow(rowType, task, p))
		}
	}
	return rows
}

func taskColumns(rowType string, t model.Task) Row {
	return Row{
		Type:            rowType,
		Title:           t.Title,
		Creator:         t.Creator,
		Assignee:        t.Assignee,
		TaskURL:         t.URL,
		Complexity:      string(t.Tier),
		Price:           t.Price.Format(model.FormatNumber),
		DeliverableRepo: model.NoneMarker,
	}
}

func taskOnlyRow(t model.Task) Row {
	r := taskColumns(RowType(t.Category, 0), t)
	r.HasProposal = "No"
	r.ProposalURL = model.NoneMarker
	r.ProposalCreator = model.NoneMarker
	r.TotalDuration = model.NoneMarker
	r.TotalFTE = model.NoneMarker
	r.TotalHours = model.NoneMarker
	r.Equation = model.NoneMarker
	r.CostPerMilestone = model.NoneMarker
	r.TotalCost = model.NoneMarker
	r.Schedule = model.NoneMarker
	return r
}

func proposalRow(rowType string, t model.Task, p model.Proposal) Row {
	r := taskColumns(rowType, t)
	r.HasProposal = "Yes"
	r.ProposalURL = p.URL
	r.ProposalCreator = p.Creator
	r.TotalDuration = p.Plan.TotalDuration.Format(model.Duration.String)
	r.TotalFTE = p.Plan.TotalFTE.Format(func(s string) string { return s })
	r.TotalHours = p.Plan.ComputedHours.Format(model.FormatNumber)
	r.Equation = p.Plan.Equation
	r.CostPerMilestone = p.Plan.CostTranscript
	r.TotalCost = p.Plan.TotalCost.Format(model.FormatNumber)
	r.Schedule = p.Schedule
	return r
}

// Metrics holds the aggregate counters of a report.
type Metrics struct {
	TotalTasks         int
	WIPTasks           int
	LookingForReviewer int
	AvailableTasks     int
	Proposals          int
}

// ComputeMetrics counts tasks and proposals. A WIP task is counted as WIP
// rather than available even when it has no proposals.
func ComputeMetrics(src Source) Metrics {
	var m Metrics
	for _, task := range src.Tasks() {
		proposals := src.Proposals(task.URL)
		m.TotalTasks++
		if task.Category.Kind == model.KindWIP {
			m.WIPTasks++
		} else if len(proposals) == 0 {
			m.AvailableTasks++
		}
		if task.Assignee == "" {
			m.LookingForReviewer++
		}
		m.Proposals += len(proposals)
	}
	return m
}
