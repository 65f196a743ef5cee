package word

import (
	"embed"
	"fmt"
	"strings"

	"route-forge/internal/config"
	"route-forge/internal/exporter/common"
	"route-forge/internal/model"

	"github.com/nguyenthenguyen/docx"
)

//go:embed template.docx
var templateFS embed.FS

type WordExporter struct{}

func NewWordExporter() *WordExporter {
	return &WordExporter{}
}

func (e *WordExporter) Export(summary *model.RunSummary, specs []*model.RouteSpecification, cfg *config.Config) error {
	r, err := docx.ReadDocxFromFS("template.docx", templateFS)
	if err != nil {
		return fmt.Errorf("failed to read embedded template: %w", err)
	}
	defer r.Close()

	doc := r.Editable()

	replacements := []struct{ key, val string }{
		{"{{Date}}", summary.Date()},
		{"{{RunID}}", summary.RunID},
		{"{{Succeeded}}", fmt.Sprintf("%d", summary.Succeeded())},
		{"{{Failed}}", fmt.Sprintf("%d", summary.Failed())},
		{"{{Content}}", BuildContent(summary, specs)},
	}
	for _, rep := range replacements {
		if err := doc.Replace(rep.key, rep.val, -1); err != nil {
			return fmt.Errorf("failed to fill %s: %w", rep.key, err)
		}
	}

	if err := doc.WriteToFile(cfg.GetReportPath(".docx")); err != nil {
		return fmt.Errorf("failed to write Word document: %w", err)
	}

	return nil
}

// BuildContent renders the run as plain text; the docx library handles
// XML encoding and line breaks
func BuildContent(summary *model.RunSummary, specs []*model.RouteSpecification) string {
	var sb strings.Builder
	descriptions := common.Descriptions(specs)

	sb.WriteString("RUN SUMMARY\n\n")
	sb.WriteString(fmt.Sprintf("  • Specification: %s\n", summary.SpecFile))
	sb.WriteString(fmt.Sprintf("  • Entries loaded: %d (rejected: %d)\n", summary.Loaded, len(summary.Issues)))
	sb.WriteString(fmt.Sprintf("  • Files written: %d\n", summary.ArtifactCount()))
	sb.WriteString(fmt.Sprintf("  • Review findings: %d\n\n", len(summary.Findings)))
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	succeeded, failed := common.SplitEntries(summary.Entries)
	entries := append(succeeded, failed...)

	for i, entry := range entries {
		sb.WriteString(fmt.Sprintf("[%s] %s (entry %d)\n", entry.Method, entry.Path, entry.Index))
		if d := descriptions[entry.Index]; d != "" {
			sb.WriteString(fmt.Sprintf("Description: %s\n", d))
		}
		sb.WriteString(fmt.Sprintf("Status: %s · %s\n", common.Status(entry), common.FormatDuration(entry.Duration)))
		if entry.Error != "" {
			sb.WriteString(fmt.Sprintf("Error: %s\n", entry.Error))
		}
		for _, note := range entry.Notes {
			sb.WriteString(fmt.Sprintf("Note: %s\n", note))
		}

		if rows := common.FlattenArtifacts([]*model.EntryResult{entry}); len(rows) > 0 {
			sb.WriteString("\nFILES:\n")
			sb.WriteString(fmt.Sprintf("%-12s %-40s %s\n", "Kind", "File", "Lines"))
			sb.WriteString(strings.Repeat("-", 60) + "\n")
			for _, row := range rows {
				sb.WriteString(fmt.Sprintf("%-12s %-40s %d\n", row.Kind, truncate(row.FileName, 40), row.Lines))
			}
		}

		if i < len(entries)-1 {
			sb.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
	}

	if len(summary.Issues) > 0 {
		sb.WriteString("\nREJECTED ENTRIES:\n")
		for _, issue := range summary.Issues {
			sb.WriteString("  • " + issue.String() + "\n")
		}
	}

	return sb.String()
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
