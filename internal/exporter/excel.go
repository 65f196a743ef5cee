package exporter

import (
	"fmt"
	"strings"

	"route-forge/internal/config"
	"route-forge/internal/exporter/common"
	"route-forge/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	SheetOverview  = "Overview"
	SheetArtifacts = "Artifacts"
	SheetFindings  = "Findings"
)

// ExcelExporter handles the Excel generation
type ExcelExporter struct {
	// Stateless
}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Export generates the Excel report
func (e *ExcelExporter) Export(summary *model.RunSummary, specs []*model.RouteSpecification, cfg *config.Config) error {
	outputFile := cfg.GetReportPath(".xlsx")
	f := excelize.NewFile()
	defer f.Close()

	styler, err := NewStyler(f)
	if err != nil {
		return err
	}

	// 1. Overview Sheet
	if err := e.writeOverview(f, styler, summary, specs); err != nil {
		return err
	}

	// 2. Artifacts Sheet
	if err := e.writeArtifacts(f, styler, summary.Entries); err != nil {
		return err
	}

	// 3. Findings Sheet
	if err := e.writeFindings(f, styler, summary.Findings); err != nil {
		return err
	}

	// Remove default "Sheet1"
	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx != -1 {
		f.DeleteSheet("Sheet1")
	}

	return f.SaveAs(outputFile)
}

// --- Overview Sheet Logic ---

func (e *ExcelExporter) writeOverview(f *excelize.File, s *Styler, summary *model.RunSummary, specs []*model.RouteSpecification) error {
	sheet := SheetOverview
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Section A: Run Summary
	row := 1
	e.writeRow(f, sheet, row, []string{"Metric", "Value"}, s.HeaderStyle)
	row++

	metrics := []struct {
		Key string
		Val interface{}
	}{
		{"Run ID", summary.RunID},
		{"Specification File", summary.SpecFile},
		{"Date", summary.Date()},
		{"Entries Loaded", summary.Loaded},
		{"Entries Rejected", len(summary.Issues)},
		{"Entries Processed", len(summary.Entries)},
		{"Succeeded", summary.Succeeded()},
		{"Failed", summary.Failed()},
		{"Artifacts Written", summary.ArtifactCount()},
		{"Review Findings", len(summary.Findings)},
	}

	for _, m := range metrics {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.Key)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), m.Val)
		row++
	}

	row += 2 // Spacer

	// Section B: Entries
	headers := []string{"No", "Method", "Path", "Description", "State", "Status", "Duration", "Detail"}
	e.writeRow(f, sheet, row, headers, s.HeaderStyle)
	row++

	descriptions := common.Descriptions(specs)
	succeeded, failed := common.SplitEntries(summary.Entries)

	for _, entry := range append(succeeded, failed...) {
		style := s.SuccessStyle
		detail := strings.Join(entry.Notes, "; ")
		if !entry.Succeeded() {
			style = s.FailureStyle
			detail = entry.Error
		}

		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), entry.Index)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.Method)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.Path)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), descriptions[entry.Index])
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(entry.State))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), common.Status(entry))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), common.FormatDuration(entry.Duration))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), detail)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), style)
		row++
	}

	// Section C: Rejected entries
	if len(summary.Issues) > 0 {
		row += 2
		e.writeRow(f, sheet, row, []string{"Entry", "Path", "Field", "Validation Issue"}, s.HeaderStyle)
		row++
		for _, issue := range summary.Issues {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), issue.Index)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), issue.Path)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), issue.Field)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), issue.Message)
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), s.FailureStyle)
			row++
		}
	}

	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "B", 30)
	f.SetColWidth(sheet, "C", "D", 40)
	f.SetColWidth(sheet, "E", "G", 20)
	f.SetColWidth(sheet, "H", "H", 60)

	return nil
}

// --- Artifacts Sheet Logic ---

func (e *ExcelExporter) writeArtifacts(f *excelize.File, s *Styler, entries []*model.EntryResult) error {
	sheet := SheetArtifacts
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Entry", "Method", "Route", "Kind", "File", "Path", "Lines"}
	e.writeRow(f, sheet, 1, headers, s.HeaderStyle)
	e.freezeHeader(f, sheet)

	row := 2
	for _, a := range common.FlattenArtifacts(entries) {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), a.Entry)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), a.Method)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), a.Route)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(a.Kind))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), a.FileName)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), a.Path)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), a.Lines)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), s.DefaultStyle)
		row++
	}

	f.SetColWidth(sheet, "C", "C", 30)
	f.SetColWidth(sheet, "E", "E", 30)
	f.SetColWidth(sheet, "F", "F", 60)

	return nil
}

// --- Findings Sheet Logic ---

func (e *ExcelExporter) writeFindings(f *excelize.File, s *Styler, findings []model.Finding) error {
	sheet := SheetFindings
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	e.writeRow(f, sheet, 1, []string{"File", "Kind", "Severity", "Message"}, s.HeaderStyle)
	e.freezeHeader(f, sheet)

	row := 2
	for _, finding := range findings {
		style := s.WrapStyle
		if finding.Severity == model.SeveritySuggestion {
			style = s.SuggestionStyle
		}

		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), finding.File)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(finding.Kind))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), finding.Severity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), finding.Message)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), style)
		row++
	}

	f.SetColWidth(sheet, "A", "A", 60)
	f.SetColWidth(sheet, "D", "D", 80)

	return nil
}

func (e *ExcelExporter) freezeHeader(f *excelize.File, sheet string) {
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (e *ExcelExporter) writeRow(f *excelize.File, sheet string, row int, values []string, style int) {
	for i, val := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, val)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}
