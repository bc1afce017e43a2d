package classify

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bryan-cox/grantledger/internal/milestone"
	"github.com/bryan-cox/grantledger/internal/model"
)

const (
	testOwner = "privacy-scaling-explorations"
	testRepo  = "acceleration-program"
	issueBase = "https://github.com/privacy-scaling-explorations/acceleration-program/issues/"
)

func newTestClassifier(t *testing.T, opts ...Option) *Classifier {
	t.Helper()
	engine, err := milestone.NewEngine(milestone.Pricing{Easy: 40, Medium: 60, Hard: 80})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return New(testOwner, testRepo, engine, opts...)
}

func taskRecord(n, title string, labels ...string) model.RawRecord {
	return model.RawRecord{
		Title:  title,
		Body:   "Project Complexity: Medium",
		Author: "alice",
		Labels: labels,
		URL:    issueBase + n,
	}
}

func proposalRecord(n, title, body string) model.RawRecord {
	return model.RawRecord{
		Title:  title,
		Body:   body,
		Author: "bob",
		URL:    issueBase + n,
	}
}

func proposalBody(taskN string) string {
	return "Task: " + issueBase + taskN + "\n" +
		"Estimated Duration: 10 hours\nFTE: 0.5\nTotal Estimated Working Hours: 5 hours"
}

func TestIsProposalTitle(t *testing.T) {
	tests := map[string]bool{
		"Proposal: Build X":    true,
		"  proposal build X":   true,
		"PROPOSAL: upper case": true,
		"Proposals are fun":    false,
		"Proposal":             false,
		"[WIP] Build X":        false,
	}
	for title, want := range tests {
		if got := IsProposalTitle(title); got != want {
			t.Errorf("IsProposalTitle(%q) = %v, want %v", title, got, want)
		}
	}
}

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		closed bool
		want   string
	}{
		{name: "plain open", want: "Task"},
		{name: "plain closed", closed: true, want: "Closed Task"},
		{name: "wip open", labels: []string{"wip"}, want: "WIP"},
		{name: "wip closed", labels: []string{"WIP"}, closed: true, want: "Closed WIP"},
		{name: "self proposed", labels: []string{"Self Proposed Open Task"}, want: "Self Proposed Open Task"},
		{name: "umbrella closed", labels: []string{"umbrella task"}, closed: true, want: "Closed Umbrella Task"},
		{name: "wip wins over umbrella", labels: []string{"umbrella task", "wip"}, want: "WIP"},
		{name: "self proposed wins over umbrella", labels: []string{"umbrella task", "self proposed open task"}, want: "Self Proposed Open Task"},
		{name: "unrelated labels", labels: []string{"good first issue"}, want: "Task"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := model.RawRecord{Title: "[WIP] Build X", Labels: tc.labels, Closed: tc.closed}
			if got := ResolveCategory(r).String(); got != tc.want {
				t.Errorf("ResolveCategory = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyLinksProposal(t *testing.T) {
	records := []model.RawRecord{
		taskRecord("1", "Build X"),
		proposalRecord("2", "Proposal: Build X", proposalBody("1")),
	}

	ledger, err := newTestClassifier(t).Classify(records)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	tasks := ledger.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Tier != model.TierMedium {
		t.Errorf("task tier = %q, want Medium", tasks[0].Tier)
	}
	if price, ok := tasks[0].Price.Get(); !ok || price != 60 {
		t.Errorf("task price = %v (ok=%v), want 60", price, ok)
	}

	ps := ledger.Proposals(issueBase + "1")
	if len(ps) != 1 {
		t.Fatalf("got %d proposals, want 1", len(ps))
	}
	p := ps[0]
	if p.URL != issueBase+"2" || p.Creator != "bob" || p.TaskURL != issueBase+"1" {
		t.Errorf("unexpected proposal %+v", p)
	}
	if p.Tier != model.TierMedium {
		t.Errorf("proposal tier = %q, want copied Medium", p.Tier)
	}
	if c, _ := p.Plan.TotalCost.Get(); c != 300 {
		t.Errorf("proposal total cost = %v, want 300", c)
	}
	if ledger.ProposalCount() != 1 {
		t.Errorf("ProposalCount = %d, want 1", ledger.ProposalCount())
	}
}

func TestClassifyProposalBeforeTask(t *testing.T) {
	records := []model.RawRecord{
		proposalRecord("2", "Proposal: early bird", proposalBody("5")),
		taskRecord("5", "Later task"),
	}
	ledger, err := newTestClassifier(t).Classify(records)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got := len(ledger.Proposals(issueBase + "5")); got != 1 {
		t.Errorf("got %d proposals for later task, want 1", got)
	}
}

func TestClassifySkipsPullRequests(t *testing.T) {
	pr := taskRecord("3", "Fix typo")
	pr.IsPullRequest = true
	ledger, err := newTestClassifier(t).Classify([]model.RawRecord{taskRecord("1", "Build X"), pr})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if ledger.Registry().Len() != 1 {
		t.Errorf("registry has %d tasks, want 1", ledger.Registry().Len())
	}
}

func TestClassifyLinkErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "two distinct links",
			body:    "see " + issueBase + "1 and " + issueBase + "3",
			wantErr: ErrLinkCount,
			wantMsg: "found 2 links",
		},
		{
			name:    "no link",
			body:    "no link here",
			wantErr: ErrLinkCount,
			wantMsg: "found 0 links",
		},
		{
			name:    "other repository",
			body:    "https://github.com/someone/else/issues/1",
			wantErr: ErrLinkCount,
			wantMsg: "found 0 links",
		},
		{
			name:    "unknown task",
			body:    issueBase + "99",
			wantErr: ErrTaskNotFound,
			wantMsg: issueBase + "99",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records := []model.RawRecord{
				taskRecord("1", "Build X"),
				taskRecord("3", "Build Y"),
				proposalRecord("2", "Proposal: Broken", tc.body),
			}
			_, err := newTestClassifier(t).Classify(records)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			var recErr *RecordError
			if !errors.As(err, &recErr) || recErr.Title != "Proposal: Broken" {
				t.Errorf("expected RecordError for the proposal, got %#v", err)
			}
			if !strings.Contains(err.Error(), "Proposal: Broken") || !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q should name the issue and contain %q", err, tc.wantMsg)
			}
		})
	}
}

func TestClassifyDuplicateLinkCountsOnce(t *testing.T) {
	body := issueBase + "1 (" + issueBase + "1)\n"
	records := []model.RawRecord{taskRecord("1", "Build X"), proposalRecord("2", "Proposal: twice", body)}
	if _, err := newTestClassifier(t).Classify(records); err != nil {
		t.Fatalf("Classify: %v", err)
	}
}

func TestClassifyMismatchAborts(t *testing.T) {
	body := issueBase + "1\nEstimated Duration: 10 hours\nFTE: 0.5\nTotal Estimated Working Hours: 6 hours"
	records := []model.RawRecord{taskRecord("1", "Build X"), proposalRecord("2", "Proposal: off by one", body)}

	_, err := newTestClassifier(t).Classify(records)
	if !errors.Is(err, milestone.ErrHoursMismatch) {
		t.Fatalf("expected ErrHoursMismatch, got %v", err)
	}
}

func TestClassifyKeepGoing(t *testing.T) {
	records := []model.RawRecord{
		taskRecord("1", "Build X"),
		proposalRecord("2", "Proposal: no link", "nothing"),
		proposalRecord("3", "Proposal: good", proposalBody("1")),
	}
	ledger, err := newTestClassifier(t, WithKeepGoing(true)).Classify(records)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(ledger.Failures) != 1 || ledger.Failures[0].Title != "Proposal: no link" {
		t.Errorf("unexpected failures %+v", ledger.Failures)
	}
	if got := len(ledger.Proposals(issueBase + "1")); got != 1 {
		t.Errorf("got %d proposals, want 1", got)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	records := []model.RawRecord{
		taskRecord("1", "Build X", "wip"),
		taskRecord("4", "Build Z"),
		proposalRecord("2", "Proposal: A", proposalBody("1")),
		proposalRecord("3", "Proposal: B", proposalBody("1")),
	}
	c := newTestClassifier(t)
	first, err := c.Classify(records)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	second, err := c.Classify(records)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !reflect.DeepEqual(first.Tasks(), second.Tasks()) {
		t.Error("tasks differ between runs")
	}
	for _, task := range first.Tasks() {
		if !reflect.DeepEqual(first.Proposals(task.URL), second.Proposals(task.URL)) {
			t.Errorf("proposals for %s differ between runs", task.URL)
		}
	}
}
