package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"route-forge/internal/ledger"
	"route-forge/internal/model"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5A4FCF")).Padding(0, 1)
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	okStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32")).Bold(true)
	failStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#D32F2F")).Bold(true)
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A")).Italic(true)
	headerStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	borderStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A4FCF"))
)

// Banner renders the application title line
func Banner(name, version, desc string) string {
	return titleStyle.Render(name+" v"+version) + "\n" + subtleStyle.Render(desc)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// PrintRunSummary writes one line per processed entry followed by totals
func PrintRunSummary(w io.Writer, summary *model.RunSummary) {
	t := newTable("#", "Route", "Status", "Files", "Duration")
	for _, e := range summary.Entries {
		status := okStyle.Render("OK")
		if !e.Succeeded() {
			status = failStyle.Render("FAILED " + string(e.FailedStage))
		}
		t.Row(
			strconv.Itoa(e.Index),
			e.Method+" "+e.Path,
			status,
			strconv.Itoa(len(e.Bundle.All())),
			e.Duration.Round(time.Millisecond).String(),
		)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%s  %s  %s\n",
		okStyle.Render(fmt.Sprintf("%d succeeded", summary.Succeeded())),
		failStyle.Render(fmt.Sprintf("%d failed", summary.Failed())),
		subtleStyle.Render(fmt.Sprintf("%d rejected at load", len(summary.Issues))),
	)
}

// PrintFindings lists review findings grouped by file
func PrintFindings(w io.Writer, findings []model.Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(w, okStyle.Render("No review findings"))
		return
	}

	current := ""
	for _, f := range findings {
		if f.File != current {
			current = f.File
			fmt.Fprintf(w, "\n%s %s\n", lipgloss.NewStyle().Bold(true).Render(f.File), subtleStyle.Render("("+string(f.Kind)+")"))
		}
		if f.Severity == model.SeveritySuggestion {
			fmt.Fprintf(w, "  %s %s\n", suggestionStyle.Render("~"), suggestionStyle.Render(f.Message))
		} else {
			fmt.Fprintf(w, "  %s %s\n", failStyle.Render("!"), f.Message)
		}
	}
}

// PrintHistory lists recorded runs, newest first
func PrintHistory(w io.Writer, runs []ledger.RunInfo) {
	if len(runs) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("No runs recorded"))
		return
	}

	t := newTable("Run", "Started", "Spec", "Entries", "Failed")
	for _, r := range runs {
		failed := strconv.Itoa(r.Failed)
		if r.Failed > 0 {
			failed = failStyle.Render(failed)
		}
		t.Row(
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			shorten(r.SpecFile, 40),
			strconv.Itoa(r.Entries),
			failed,
		)
	}
	fmt.Fprintln(w, t.Render())
}

// PrintIssues lists entries rejected at load time
func PrintIssues(w io.Writer, issues []model.ValidationIssue) {
	for _, issue := range issues {
		fmt.Fprintf(w, "  %s %s\n", failStyle.Render("✗"), issue.String())
	}
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n+3:]
}

// Rule renders a horizontal separator of width n
func Rule(n int) string {
	return subtleStyle.Render(strings.Repeat("─", n))
}
