package milestone

import (
	"errors"
	"strings"
	"testing"

	"github.com/bryan-cox/grantledger/internal/model"
)

var testPricing = Pricing{Easy: 40, Medium: 60, Hard: 80}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testPricing)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestParseRoundTrip(t *testing.T) {
	body := "Project Complexity: Medium\nEstimated Duration: 10 hours\nFTE: 0.5\nTotal Estimated Working Hours: 5 hours"

	plan, err := newTestEngine(t).Parse("Proposal: Round trip", body, model.TierMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h, ok := plan.ComputedHours.Get(); !ok || h != 5 {
		t.Errorf("ComputedHours = %v (ok=%v), want 5", h, ok)
	}
	if !plan.Consistent {
		t.Error("expected plan to be consistent")
	}
	if c, ok := plan.TotalCost.Get(); !ok || c != 300 {
		t.Errorf("TotalCost = %v (ok=%v), want 300", c, ok)
	}
	if plan.Equation != "(10 hours * 0.5 FTE) * $60" {
		t.Errorf("Equation = %q", plan.Equation)
	}
	if plan.CostTranscript != "m1 = $300; " {
		t.Errorf("CostTranscript = %q", plan.CostTranscript)
	}
}

func TestParseMismatch(t *testing.T) {
	body := "Project Complexity: Medium\nEstimated Duration: 10 hours\nFTE: 0.5\nTotal Estimated Working Hours: 6 hours"

	plan, err := newTestEngine(t).Parse("Proposal: Mismatch", body, model.TierMedium)
	if err == nil {
		t.Fatal("expected a mismatch error")
	}
	if !errors.Is(err, ErrHoursMismatch) {
		t.Errorf("expected ErrHoursMismatch, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"Proposal: Mismatch", "(5)", "(6)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
	if plan.Consistent {
		t.Error("plan should not be consistent")
	}
}

func TestParseSampleBody(t *testing.T) {
	plan, err := newTestEngine(t).Parse("Proposal: Sample", sampleBody, model.TierMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Milestones) != 2 {
		t.Fatalf("got %d milestones, want 2", len(plan.Milestones))
	}
	if h, _ := plan.Milestones[0].Hours.Get(); h != 160 {
		t.Errorf("milestone 1 hours = %v, want 160", h)
	}
	if h, _ := plan.Milestones[1].Hours.Get(); h != 320 {
		t.Errorf("milestone 2 hours = %v, want 320", h)
	}
	if h, _ := plan.ComputedHours.Get(); h != 400 {
		t.Errorf("ComputedHours = %v, want 400", h)
	}
	want := "(1 month * 1 FTE) * $60 + (2 months * 0.75 FTE) * $60"
	if plan.Equation != want {
		t.Errorf("Equation = %q, want %q", plan.Equation, want)
	}
	if plan.CostTranscript != "m1 = $9600; m2 = $14400; " {
		t.Errorf("CostTranscript = %q", plan.CostTranscript)
	}
}

func TestParseUnknownTier(t *testing.T) {
	body := "Estimated Duration: 2 weeks\nFTE: 1"
	plan, err := newTestEngine(t).Parse("Proposal: No tier", body, model.TierUnknown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.TotalCost.OK() {
		t.Error("total cost should be unresolved without a tier")
	}
	if plan.Milestones[0].Cost.OK() {
		t.Error("milestone cost should be unresolved without a tier")
	}
	if h, ok := plan.ComputedHours.Get(); !ok || h != 80 {
		t.Errorf("hours do not depend on tier, got %v (ok=%v)", h, ok)
	}
	if plan.CostTranscript != "m1 = $error; " {
		t.Errorf("CostTranscript = %q", plan.CostTranscript)
	}
	if plan.Equation != "(2 weeks * 1 FTE) * $error" {
		t.Errorf("Equation = %q", plan.Equation)
	}
}

func TestParseCountMismatchTruncates(t *testing.T) {
	body := "Estimated Duration: 1 week\nFTE: 1\nEstimated Duration: 2 weeks"
	plan, err := newTestEngine(t).Parse("Proposal: Short", body, model.TierEasy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Milestones) != 1 {
		t.Errorf("got %d milestones, want 1", len(plan.Milestones))
	}
	if len(plan.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", plan.Warnings)
	}
}

func TestParseNoMilestones(t *testing.T) {
	t.Run("without declared hours", func(t *testing.T) {
		plan, err := newTestEngine(t).Parse("Proposal: Empty", "no template", model.TierEasy)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.ComputedHours.OK() {
			t.Error("computed hours should be unresolved")
		}
		if plan.Equation != model.ErrorMarker {
			t.Errorf("Equation = %q, want %q", plan.Equation, model.ErrorMarker)
		}
		if c, ok := plan.TotalCost.Get(); !ok || c != 0 {
			t.Errorf("TotalCost = %v (ok=%v), want 0", c, ok)
		}
	})

	t.Run("with declared hours", func(t *testing.T) {
		_, err := newTestEngine(t).Parse("Proposal: Empty", "Total Estimated Working Hours: 10 hours", model.TierEasy)
		if !errors.Is(err, ErrHoursMismatch) {
			t.Fatalf("expected ErrHoursMismatch, got %v", err)
		}
		if !strings.Contains(err.Error(), "(error)") {
			t.Errorf("error should show the unresolved sum, got %q", err)
		}
	})
}

func TestParseIsDeterministic(t *testing.T) {
	e := newTestEngine(t)
	a, errA := e.Parse("Proposal: Again", sampleBody, model.TierHard)
	b, errB := e.Parse("Proposal: Again", sampleBody, model.TierHard)
	if (errA == nil) != (errB == nil) {
		t.Fatalf("errors differ: %v vs %v", errA, errB)
	}
	if a.Equation != b.Equation || a.CostTranscript != b.CostTranscript {
		t.Error("repeated parse produced different transcripts")
	}
	if a.TotalCost != b.TotalCost || a.ComputedHours != b.ComputedHours {
		t.Error("repeated parse produced different totals")
	}
}

func TestNewEngineRejectsBadPricing(t *testing.T) {
	if _, err := NewEngine(Pricing{Easy: 1, Medium: 0, Hard: 3}); !errors.Is(err, ErrInvalidPricing) {
		t.Errorf("expected ErrInvalidPricing, got %v", err)
	}
}
