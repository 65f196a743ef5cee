package model

import "time"

// EntryResult is the outcome of running the pipeline for one specification entry
type EntryResult struct {
	Index       int             `json:"index"`
	Path        string          `json:"path"`
	Method      string          `json:"method"`
	State       State           `json:"state"`
	Bundle      *ArtifactBundle `json:"bundle,omitempty"`
	FailedStage Stage           `json:"failed_stage,omitempty"`
	Error       string          `json:"error,omitempty"`
	Notes       []string        `json:"notes,omitempty"`
	Duration    time.Duration   `json:"duration"`
}

// Succeeded reports whether the entry reached the terminal state
func (r *EntryResult) Succeeded() bool {
	return r.State == StateTestsGenerated
}

// Finding is one advisory review result for a generated file
type Finding struct {
	File     string       `json:"file"`
	Kind     ArtifactKind `json:"kind"`
	Severity string       `json:"severity"` // "issue" or "suggestion"
	Message  string       `json:"message"`
}

const (
	SeverityIssue      = "issue"
	SeveritySuggestion = "suggestion"
)

// RunSummary aggregates one batch run for reporting
type RunSummary struct {
	RunID      string            `json:"run_id"`
	SpecFile   string            `json:"spec_file"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Loaded     int               `json:"loaded"`
	Issues     []ValidationIssue `json:"issues"`
	Entries    []*EntryResult    `json:"entries"`
	Findings   []Finding         `json:"findings,omitempty"`
}

// NewRunSummary creates a summary stamped with the current time
func NewRunSummary(runID, specFile string) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		SpecFile:  specFile,
		StartedAt: time.Now(),
	}
}

// Succeeded counts entries that reached TestsGenerated
func (s *RunSummary) Succeeded() int {
	n := 0
	for _, e := range s.Entries {
		if e.Succeeded() {
			n++
		}
	}
	return n
}

// Failed counts entries that stopped before TestsGenerated
func (s *RunSummary) Failed() int {
	return len(s.Entries) - s.Succeeded()
}

// ArtifactCount counts every artifact written during the run
func (s *RunSummary) ArtifactCount() int {
	n := 0
	for _, e := range s.Entries {
		n += len(e.Bundle.All())
	}
	return n
}

// Date returns the run date in the report format
func (s *RunSummary) Date() string {
	return s.StartedAt.Format("2006-01-02")
}
