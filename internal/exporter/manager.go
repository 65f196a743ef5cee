package exporter

import (
	"fmt"
	"strings"

	"route-forge/internal/config"
	"route-forge/internal/exporter/html"
	"route-forge/internal/exporter/openapi"
	"route-forge/internal/exporter/word"
	"route-forge/internal/logger"
	"route-forge/internal/model"
)

// aliases maps accepted format names to their canonical form
var aliases = map[string]string{
	"excel":   "excel",
	"xlsx":    "excel",
	"html":    "html",
	"word":    "word",
	"docx":    "word",
	"json":    "json",
	"openapi": "openapi",
	"swagger": "openapi",
}

// GetExporters returns a list of Exporters based on requested formats.
// Unknown formats are skipped with a warning.
func GetExporters(formats []string) []Exporter {
	exporters := []Exporter{}
	seen := make(map[string]bool)

	for _, fmtStr := range formats {
		fmtStr = strings.ToLower(strings.TrimSpace(fmtStr))
		if fmtStr == "" {
			continue
		}
		canonical, ok := aliases[fmtStr]
		if !ok {
			logger.Warn("Unknown report format %q ignored", fmtStr)
			continue
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true

		switch canonical {
		case "excel":
			exporters = append(exporters, NewExcelExporter())
		case "html":
			exporters = append(exporters, html.NewHTMLExporter())
		case "word":
			exporters = append(exporters, word.NewWordExporter())
		case "json":
			exporters = append(exporters, NewJSONExporter())
		case "openapi":
			exporters = append(exporters, openapi.NewOpenAPIExporter())
		}
	}

	return exporters
}

// ExportAll runs every exporter for formats. A failing exporter does not
// stop the others; the failures are returned joined.
func ExportAll(formats []string, summary *model.RunSummary, specs []*model.RouteSpecification, cfg *config.Config) error {
	var failed []string
	for _, e := range GetExporters(formats) {
		if err := e.Export(summary, specs, cfg); err != nil {
			logger.Error("Report export failed (%T): %v", e, err)
			failed = append(failed, err.Error())
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d report(s) failed: %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}
