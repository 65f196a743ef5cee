package exporter

import (
	"encoding/json"
	"os"
	"time"

	"route-forge/internal/config"
	"route-forge/internal/exporter/common"
	"route-forge/internal/model"
)

// JSONExporter writes the run summary without artifact contents
type JSONExporter struct{}

// NewJSONExporter creates a new JSONExporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

type jsonReport struct {
	RunID      string                  `json:"run_id"`
	SpecFile   string                  `json:"spec_file"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Loaded     int                     `json:"loaded"`
	Succeeded  int                     `json:"succeeded"`
	Failed     int                     `json:"failed"`
	Issues     []model.ValidationIssue `json:"issues"`
	Entries    []jsonEntry             `json:"entries"`
	Findings   []model.Finding         `json:"findings,omitempty"`
}

type jsonEntry struct {
	Index       int                  `json:"index"`
	Method      string               `json:"method"`
	Path        string               `json:"path"`
	Description string               `json:"description,omitempty"`
	State       model.State          `json:"state"`
	FailedStage model.Stage          `json:"failed_stage,omitempty"`
	Error       string               `json:"error,omitempty"`
	Notes       []string             `json:"notes,omitempty"`
	DurationMS  int64                `json:"duration_ms"`
	Artifacts   []common.ArtifactRow `json:"artifacts"`
}

// Export writes <report_name>.json
func (e *JSONExporter) Export(summary *model.RunSummary, specs []*model.RouteSpecification, cfg *config.Config) error {
	descriptions := common.Descriptions(specs)

	report := jsonReport{
		RunID:      summary.RunID,
		SpecFile:   summary.SpecFile,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Loaded:     summary.Loaded,
		Succeeded:  summary.Succeeded(),
		Failed:     summary.Failed(),
		Issues:     summary.Issues,
		Entries:    make([]jsonEntry, 0, len(summary.Entries)),
		Findings:   summary.Findings,
	}
	if report.Issues == nil {
		report.Issues = []model.ValidationIssue{}
	}

	for _, entry := range summary.Entries {
		artifacts := common.FlattenArtifacts([]*model.EntryResult{entry})
		if artifacts == nil {
			artifacts = []common.ArtifactRow{}
		}
		report.Entries = append(report.Entries, jsonEntry{
			Index:       entry.Index,
			Method:      entry.Method,
			Path:        entry.Path,
			Description: descriptions[entry.Index],
			State:       entry.State,
			FailedStage: entry.FailedStage,
			Error:       entry.Error,
			Notes:       entry.Notes,
			DurationMS:  entry.Duration.Milliseconds(),
			Artifacts:   artifacts,
		})
	}

	file, err := os.Create(cfg.GetReportPath(".json"))
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
