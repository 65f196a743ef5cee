package common

import (
	"sort"
	"strings"
	"time"

	"route-forge/internal/model"
)

// ArtifactRow is one generated file flattened for tabular reports
type ArtifactRow struct {
	Entry    int                `json:"entry"`
	Method   string             `json:"method"`
	Route    string             `json:"route"`
	Kind     model.ArtifactKind `json:"kind"`
	FileName string             `json:"file_name"`
	Path     string             `json:"path"`
	Lines    int                `json:"lines"`
}

// SplitEntries separates succeeded entries from failed ones, each ordered
// by entry index
func SplitEntries(entries []*model.EntryResult) (succeeded, failed []*model.EntryResult) {
	for _, e := range entries {
		if e.Succeeded() {
			succeeded = append(succeeded, e)
		} else {
			failed = append(failed, e)
		}
	}
	byIndex := func(list []*model.EntryResult) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Index < list[j].Index })
	}
	byIndex(succeeded)
	byIndex(failed)
	return succeeded, failed
}

// FlattenArtifacts lists every artifact of every entry in generation order
func FlattenArtifacts(entries []*model.EntryResult) []ArtifactRow {
	var rows []ArtifactRow
	for _, e := range entries {
		for _, a := range e.Bundle.All() {
			rows = append(rows, ArtifactRow{
				Entry:    e.Index,
				Method:   e.Method,
				Route:    e.Path,
				Kind:     a.Kind,
				FileName: a.FileName,
				Path:     a.Path,
				Lines:    CountLines(a.Content),
			})
		}
	}
	return rows
}

// CountLines counts lines, ignoring a trailing newline
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
}

// Descriptions maps entry index to the declared route description
func Descriptions(specs []*model.RouteSpecification) map[int]string {
	out := make(map[int]string, len(specs))
	for _, s := range specs {
		out[s.Index] = s.RouteDetails.Description
	}
	return out
}

// Status renders an entry outcome for reports
func Status(e *model.EntryResult) string {
	if e.Succeeded() {
		return "OK"
	}
	if e.FailedStage != "" {
		return "FAILED at " + string(e.FailedStage)
	}
	return "FAILED"
}

// FormatDuration rounds d for display
func FormatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
