// Package model defines the core data structures for GrantLedger.
package model

import "strings"

// Display markers used by the report columns.
const (
	ErrorMarker = "error"
	NoneMarker  = "NONE"
)

// Label names that select a task category.
const (
	LabelWIP          = "wip"
	LabelSelfProposed = "self proposed open task"
	LabelUmbrella     = "umbrella task"
)

// RawRecord represents a single issue as delivered by the fetch layer.
type RawRecord struct {
	Title         string   `yaml:"title"`
	Body          string   `yaml:"body"`
	Author        string   `yaml:"author"`
	Assignee      string   `yaml:"assignee,omitempty"`
	Closed        bool     `yaml:"closed"`
	Labels        []string `yaml:"labels,omitempty"`
	URL           string   `yaml:"url"`
	IsPullRequest bool     `yaml:"pull_request,omitempty"`
}

// HasLabel reports whether the record carries the label, ignoring case.
func (r RawRecord) HasLabel(name string) bool {
	for _, l := range r.Labels {
		if strings.EqualFold(strings.TrimSpace(l), name) {
			return true
		}
	}
	return false
}

// Kind is the task subtype resolved from labels.
type Kind int

const (
	KindTask Kind = iota
	KindWIP
	KindSelfProposed
	KindUmbrella
)

var kindNames = map[Kind]string{
	KindTask:         "Task",
	KindWIP:          "WIP",
	KindSelfProposed: "Self Proposed Open Task",
	KindUmbrella:     "Umbrella Task",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Task"
}

// Category combines the task subtype with its open/closed state.
type Category struct {
	Kind   Kind
	Closed bool
}

// String returns the label used for rows of tasks without proposals.
func (c Category) String() string {
	if c.Closed {
		return "Closed " + c.Kind.String()
	}
	return c.Kind.String()
}

// Task is a unit of requested work. URL is its unique key.
type Task struct {
	Category Category
	Title    string
	Creator  string
	Assignee string
	Tier     Tier
	Price    Field[float64]
	URL      string
}

// Proposal is a bid against exactly one Task.
type Proposal struct {
	Title    string
	Creator  string
	Assignee string
	URL      string
	TaskURL  string
	Tier     Tier
	Plan     MilestonePlan
	Schedule string
}

// Duration is a (value, unit) pair exactly as written in a body.
type Duration struct {
	Value float64
	Unit  string
}

// Milestone is one scheduled phase with its derived figures.
type Milestone struct {
	Duration Duration
	FTE      Field[float64]
	Hours    Field[float64]
	Cost     Field[float64]
	Equation string
}

// MilestonePlan is the parsed scheduling and cost payload of a proposal.
type MilestonePlan struct {
	TotalDuration  Field[Duration]
	TotalFTE       Field[string]
	DeclaredHours  Field[int]
	Milestones     []Milestone
	ComputedHours  Field[float64]
	TotalCost      Field[float64]
	Rate           Field[float64]
	Equation       string
	CostTranscript string
	Consistent     bool
	Warnings       []string
}
