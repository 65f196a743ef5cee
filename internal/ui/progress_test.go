package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"route-forge/internal/ledger"
	"route-forge/internal/model"
)

func TestPipelinePhases(t *testing.T) {
	var out bytes.Buffer
	p := NewPipelineWithOutput([]Phase{PhaseLoading, PhaseGenerating}, &out)

	if p.Current() != "" {
		t.Fatalf("Current before start = %q", p.Current())
	}

	bar := p.NextPhase(2)
	if p.Current() != PhaseLoading {
		t.Errorf("Current = %q, want %q", p.Current(), PhaseLoading)
	}
	bar.Describe("GET /users")
	if err := bar.Increment(); err != nil {
		t.Fatal(err)
	}

	p.NextPhase(1)
	if p.Current() != PhaseGenerating {
		t.Errorf("Current = %q, want %q", p.Current(), PhaseGenerating)
	}

	// Past the last phase a silent bar is returned instead of nil
	extra := p.NextPhase(1)
	if extra == nil {
		t.Fatal("NextPhase past the end returned nil")
	}
	if err := extra.Increment(); err != nil {
		t.Fatal(err)
	}
	p.Finish()

	if !strings.Contains(out.String(), "[Loading]") {
		t.Errorf("Output should name the phase, got %q", out.String())
	}
}

func TestDisabledPipelineWritesNothing(t *testing.T) {
	var out bytes.Buffer
	p := NewPipelineWithOutput([]Phase{PhaseReporting}, &out)
	p.Disable()

	bar := p.NextPhase(3)
	bar.Describe("report")
	bar.Increment()
	p.Finish()
	p.PrintSummary()

	if out.Len() != 0 {
		t.Errorf("Disabled pipeline wrote %q", out.String())
	}
}

func TestPipelineTimesPhases(t *testing.T) {
	var out bytes.Buffer
	p := NewPipelineWithOutput(RunPhases(false), &out)
	p.Disable()

	clock := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	p.NextPhase(2)
	clock = clock.Add(20 * time.Millisecond)
	p.NextPhase(3)
	clock = clock.Add(2 * time.Second)
	p.NextPhase(1)
	clock = clock.Add(5 * time.Millisecond)
	p.Finish()
	p.Finish()

	if got := p.Elapsed(PhaseGenerating); got != 2*time.Second {
		t.Errorf("Elapsed(Generating) = %s, want 2s", got)
	}
	if got := p.Elapsed(PhaseReporting); got != 5*time.Millisecond {
		t.Errorf("Elapsed(Reporting) = %s, want 5ms", got)
	}
	if got := p.Elapsed(PhaseReviewing); got != 0 {
		t.Errorf("Elapsed(Reviewing) = %s, want 0 when review is off", got)
	}

	p.disabled = false
	p.PrintSummary()
	want := "Phases: Loading 20ms, Generating 2s, Reporting 5ms\n"
	if out.String() != want {
		t.Errorf("PrintSummary wrote %q, want %q", out.String(), want)
	}
}

func TestRunPhases(t *testing.T) {
	without := RunPhases(false)
	if len(without) != 3 || without[2] != PhaseReporting {
		t.Errorf("RunPhases(false) = %v", without)
	}
	for _, ph := range without {
		if ph == PhaseReviewing {
			t.Errorf("RunPhases(false) includes %s", PhaseReviewing)
		}
	}

	with := RunPhases(true)
	if len(with) != 4 || with[2] != PhaseReviewing || with[3] != PhaseReporting {
		t.Errorf("RunPhases(true) = %v", with)
	}
}

func TestPrintRunSummary(t *testing.T) {
	var out bytes.Buffer
	summary := &model.RunSummary{
		Entries: []*model.EntryResult{
			{Index: 1, Method: "GET", Path: "/users", State: model.StateTestsGenerated, Duration: time.Second},
			{Index: 2, Method: "POST", Path: "/orders", FailedStage: model.StageDocs},
		},
		Issues: []model.ValidationIssue{{Index: 3, Message: "Invalid HTTP method"}},
	}

	PrintRunSummary(&out, summary)

	text := out.String()
	for _, want := range []string{"GET /users", "POST /orders", "FAILED docs", "1 succeeded", "1 failed", "1 rejected at load"} {
		if !strings.Contains(text, want) {
			t.Errorf("Summary is missing %q:\n%s", want, text)
		}
	}
}

func TestPrintFindings(t *testing.T) {
	var out bytes.Buffer
	PrintFindings(&out, []model.Finding{
		{File: "a.js", Kind: model.KindRoute, Severity: model.SeverityIssue, Message: "Missing JSDoc comments"},
		{File: "a.js", Kind: model.KindRoute, Severity: model.SeveritySuggestion, Message: "Consider adding input validation to the route"},
		{File: "b.js", Kind: model.KindService, Severity: model.SeverityIssue, Message: "Code contains TODO comments"},
	})

	text := out.String()
	if strings.Count(text, "a.js") != 1 {
		t.Errorf("Findings should be grouped by file:\n%s", text)
	}
	for _, want := range []string{"b.js", "Missing JSDoc comments", "Consider adding input validation"} {
		if !strings.Contains(text, want) {
			t.Errorf("Findings output is missing %q", want)
		}
	}

	out.Reset()
	PrintFindings(&out, nil)
	if !strings.Contains(out.String(), "No review findings") {
		t.Errorf("Empty findings output = %q", out.String())
	}
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	PrintHistory(&out, []ledger.RunInfo{{
		RunID:     "run-1",
		SpecFile:  "/very/long/path/to/the/specification/documents/route_specs.yaml",
		StartedAt: time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC),
		Entries:   4,
		Failed:    1,
	}})

	text := out.String()
	for _, want := range []string{"run-1", "2026-04-01 12:30:00", "route_specs.yaml", "..."} {
		if !strings.Contains(text, want) {
			t.Errorf("History is missing %q:\n%s", want, text)
		}
	}
}
