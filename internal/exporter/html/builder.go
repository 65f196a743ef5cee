package html

import (
	"html/template"
	"os"
	"strings"

	"route-forge/internal/config"
	"route-forge/internal/exporter/common"
	"route-forge/internal/model"
)

type HTMLExporter struct{}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// RunReportData is the view model for RunReportTemplate
type RunReportData struct {
	Date      string
	RunID     string
	SpecFile  string
	Loaded    int
	Rejected  int
	Succeeded int
	Failed    int
	Artifacts int
	Entries   []EntryView
	Issues    []model.ValidationIssue
	Findings  []model.Finding
}

// EntryView is one entry card
type EntryView struct {
	Index       int
	Method      string
	Path        string
	Description string
	State       model.State
	Status      string
	OK          bool
	Duration    string
	Error       string
	Notes       []string
	Inputs      []model.InputField
	Files       []common.ArtifactRow
}

func (e *HTMLExporter) Export(summary *model.RunSummary, specs []*model.RouteSpecification, cfg *config.Config) error {
	data := BuildData(summary, specs)

	f, err := os.Create(cfg.GetReportPath(".html"))
	if err != nil {
		return err
	}
	defer f.Close()

	tmpl, err := template.New("run-report").Funcs(template.FuncMap{
		"methodColor": getMethodColor,
		"methodBadge": getMethodBadge,
	}).Parse(RunReportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(f, data)
}

// BuildData assembles the view model, entries in document order
func BuildData(summary *model.RunSummary, specs []*model.RouteSpecification) RunReportData {
	bySpec := make(map[int]*model.RouteSpecification, len(specs))
	for _, s := range specs {
		bySpec[s.Index] = s
	}

	data := RunReportData{
		Date:      summary.Date(),
		RunID:     summary.RunID,
		SpecFile:  summary.SpecFile,
		Loaded:    summary.Loaded,
		Rejected:  len(summary.Issues),
		Succeeded: summary.Succeeded(),
		Failed:    summary.Failed(),
		Artifacts: summary.ArtifactCount(),
		Issues:    summary.Issues,
		Findings:  summary.Findings,
	}

	for _, entry := range summary.Entries {
		view := EntryView{
			Index:    entry.Index,
			Method:   entry.Method,
			Path:     entry.Path,
			State:    entry.State,
			Status:   common.Status(entry),
			OK:       entry.Succeeded(),
			Duration: common.FormatDuration(entry.Duration),
			Error:    entry.Error,
			Notes:    entry.Notes,
			Files:    common.FlattenArtifacts([]*model.EntryResult{entry}),
		}
		if spec, ok := bySpec[entry.Index]; ok {
			view.Description = spec.RouteDetails.Description
			view.Inputs = spec.Input
		}
		data.Entries = append(data.Entries, view)
	}

	return data
}

// getMethodColor returns CSS color class for HTTP method
func getMethodColor(method string) string {
	switch strings.ToUpper(method) {
	case "GET":
		return "method-get"
	case "POST":
		return "method-post"
	case "PUT":
		return "method-put"
	case "DELETE":
		return "method-delete"
	case "PATCH":
		return "method-patch"
	default:
		return "method-default"
	}
}

// getMethodBadge returns badge text for HTTP method
func getMethodBadge(method string) string {
	return strings.ToUpper(method)
}
