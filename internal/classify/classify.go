// Package classify splits raw issue records into tasks and proposals and
// links every proposal to the task it bids on.
package classify

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bryan-cox/grantledger/internal/milestone"
	"github.com/bryan-cox/grantledger/internal/model"
	"github.com/bryan-cox/grantledger/internal/schedule"
)

// Sentinel errors for record-level failures.
var (
	ErrLinkCount    = errors.New("proposal must link exactly one task")
	ErrTaskNotFound = errors.New("linked task not found")
)

// proposalPrefixes mark a proposal title, compared case-insensitively.
var proposalPrefixes = []string{"proposal: ", "proposal "}

// RecordError is a record-level failure tied to one issue.
type RecordError struct {
	Title string
	URL   string
	Err   error
}

func (e *RecordError) Error() string {
	return e.Err.Error()
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// IsProposalTitle reports whether title names a proposal.
func IsProposalTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, p := range proposalPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// ResolveCategory picks the task subtype from labels, in the order
// WIP, self-proposed open task, umbrella task, plain task.
func ResolveCategory(r model.RawRecord) model.Category {
	c := model.Category{Kind: model.KindTask, Closed: r.Closed}
	switch {
	case r.HasLabel(model.LabelWIP):
		c.Kind = model.KindWIP
	case r.HasLabel(model.LabelSelfProposed):
		c.Kind = model.KindSelfProposed
	case r.HasLabel(model.LabelUmbrella):
		c.Kind = model.KindUmbrella
	}
	return c
}

// LinkPattern matches issue permalinks of owner/repo.
func LinkPattern(owner, repo string) *regexp.Regexp {
	return regexp.MustCompile(`https://github\.com/` + regexp.QuoteMeta(owner) + `/` + regexp.QuoteMeta(repo) + `/issues/\d+`)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithKeepGoing collects record failures on the Ledger instead of stopping
// at the first one.
func WithKeepGoing(keepGoing bool) Option {
	return func(c *Classifier) {
		c.keepGoing = keepGoing
	}
}

// Classifier turns raw records into a Ledger.
type Classifier struct {
	engine    *milestone.Engine
	links     *regexp.Regexp
	keepGoing bool
}

// New returns a Classifier for issues of owner/repo.
func New(owner, repo string, engine *milestone.Engine, opts ...Option) *Classifier {
	c := &Classifier{
		engine: engine,
		links:  LinkPattern(owner, repo),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractTaskLink returns the single task permalink in a proposal body.
// Repeats of the same link count once.
func (c *Classifier) ExtractTaskLink(title, body string) (string, error) {
	var links []string
	seen := make(map[string]bool)
	for _, l := range c.links.FindAllString(body, -1) {
		if !seen[l] {
			seen[l] = true
			links = append(links, l)
		}
	}
	if len(links) != 1 {
		return "", fmt.Errorf("issue %q: multiple issue links found in the body, found %d links: %w",
			title, len(links), ErrLinkCount)
	}
	return links[0], nil
}

// Classify registers every task first, then resolves each proposal against
// the registry. Pull requests are skipped. Records must be ordered oldest
// first; the order is kept in the Ledger.
func (c *Classifier) Classify(records []model.RawRecord) (*Ledger, error) {
	reg := newRegistry()
	for _, r := range records {
		if r.IsPullRequest || IsProposalTitle(r.Title) {
			continue
		}
		reg.add(c.buildTask(r))
	}

	ledger := &Ledger{
		registry:  reg,
		proposals: make(map[string][]model.Proposal),
	}
	for _, r := range records {
		if r.IsPullRequest || !IsProposalTitle(r.Title) {
			continue
		}
		p, err := c.buildProposal(r, reg)
		if err != nil {
			recErr := &RecordError{Title: strings.TrimSpace(r.Title), URL: r.URL, Err: err}
			if !c.keepGoing {
				return nil, recErr
			}
			slog.Warn("skipping proposal", "issue", recErr.Title, "url", recErr.URL, "error", err)
			ledger.Failures = append(ledger.Failures, recErr)
			continue
		}
		ledger.proposals[p.TaskURL] = append(ledger.proposals[p.TaskURL], p)
	}
	return ledger, nil
}

func (c *Classifier) buildTask(r model.RawRecord) model.Task {
	tier := milestone.ExtractComplexity(r.Body)
	return model.Task{
		Category: ResolveCategory(r),
		Title:    strings.TrimSpace(r.Title),
		Creator:  r.Author,
		Assignee: r.Assignee,
		Tier:     tier,
		Price:    c.engine.Pricing().Rate(tier),
		URL:      r.URL,
	}
}

func (c *Classifier) buildProposal(r model.RawRecord, reg *Registry) (model.Proposal, error) {
	title := strings.TrimSpace(r.Title)
	link, err := c.ExtractTaskLink(title, r.Body)
	if err != nil {
		return model.Proposal{}, err
	}
	task, ok := reg.Lookup(link)
	if !ok {
		return model.Proposal{}, fmt.Errorf("issue %q: %w: %s", title, ErrTaskNotFound, link)
	}

	plan, err := c.engine.Parse(title, r.Body, task.Tier)
	if err != nil {
		return model.Proposal{}, err
	}
	for _, w := range plan.Warnings {
		slog.Debug("milestone plan warning", "issue", title, "warning", w)
	}

	return model.Proposal{
		Title:    title,
		Creator:  r.Author,
		Assignee: r.Assignee,
		URL:      r.URL,
		TaskURL:  task.URL,
		Tier:     task.Tier,
		Plan:     plan,
		Schedule: schedule.Build(r.Body).String(),
	}, nil
}
