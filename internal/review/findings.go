package review

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/afero"

	"route-forge/internal/logger"
	"route-forge/internal/model"
)

// Docs checks a swagger artifact: it must be a JSON object, and when it
// declares OpenAPI 3 the document must pass validation
func Docs(ctx context.Context, text string) []string {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return []string{"Swagger document is not valid JSON: " + err.Error()}
	}

	version, _ := doc["openapi"].(string)
	if !strings.HasPrefix(version, "3.") {
		if _, ok := doc["paths"]; !ok {
			return []string{"Swagger document has no paths"}
		}
		return nil
	}

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData([]byte(text))
	if err != nil {
		return []string{"OpenAPI document could not be loaded: " + err.Error()}
	}
	if err := spec.Validate(ctx); err != nil {
		return []string{"OpenAPI document is invalid: " + err.Error()}
	}
	return nil
}

// File reviews one artifact and returns its findings, issues first
func File(ctx context.Context, name string, kind model.ArtifactKind, text string, project *model.ProjectContext) []model.Finding {
	var messages []string
	if kind == model.KindSwagger {
		messages = Docs(ctx, text)
	} else {
		messages = Review(text, kind)
		if project != nil && (kind == model.KindController || kind == model.KindService) {
			messages = append(messages, SchemaUsage(text, project.SchemaTables())...)
		}
	}

	findings := make([]model.Finding, 0, len(messages))
	for _, m := range messages {
		findings = append(findings, model.Finding{File: name, Kind: kind, Severity: model.SeverityIssue, Message: m})
	}
	for _, m := range Suggest(text, kind) {
		findings = append(findings, model.Finding{File: name, Kind: kind, Severity: model.SeveritySuggestion, Message: m})
	}
	return findings
}

// Entry reviews every artifact produced for one entry. Middleware the
// entry declares but the route never mentions is reported as a suggestion,
// as is declared middleware missing from the project's catalog.
func Entry(ctx context.Context, spec *model.RouteSpecification, bundle *model.ArtifactBundle, project *model.ProjectContext) []model.Finding {
	var findings []model.Finding
	for _, a := range bundle.All() {
		findings = append(findings, File(ctx, a.Path, a.Kind, a.Content, project)...)
	}

	route := bundle.Get(model.KindRoute)
	if spec == nil || route == nil {
		return findings
	}

	suggest := func(message string) {
		findings = append(findings, model.Finding{
			File:     route.Path,
			Kind:     model.KindRoute,
			Severity: model.SeveritySuggestion,
			Message:  message,
		})
	}

	used := MiddlewareUsage(route.Content, spec.Middleware)
	for _, name := range spec.Middleware {
		if !slices.Contains(used, name) {
			suggest("Declared middleware '" + name + "' is not used by the route")
		}
	}

	var catalog []string
	if project != nil {
		catalog = project.MiddlewareNames()
	}
	if len(catalog) == 0 {
		return findings
	}
	for _, name := range spec.Middleware {
		if !slices.ContainsFunc(catalog, func(c string) bool { return strings.EqualFold(c, name) }) {
			suggest("Declared middleware '" + name + "' is not in the middleware catalog")
		}
	}
	return findings
}

// Dir walks root and reviews every file whose kind can be inferred from its
// name. Unreadable files are logged and skipped.
func Dir(ctx context.Context, fsys afero.Fs, root string, project *model.ProjectContext) ([]model.Finding, error) {
	var findings []model.Finding

	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || !reviewable(info.Name()) {
			return nil
		}

		kind := model.KindFromFileName(info.Name())
		if kind == "" {
			return nil
		}

		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		findings = append(findings, File(ctx, path, kind, string(data), project)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].File < findings[j].File
	})
	return findings, nil
}

// reviewable limits Dir to generated sources and documents
func reviewable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".ts", ".mjs", ".cjs":
		return true
	case ".json":
		return strings.Contains(strings.ToLower(name), "swagger")
	}
	return false
}

// Count splits findings by severity
func Count(findings []model.Finding) (issues, suggestions int) {
	for _, f := range findings {
		if f.Severity == model.SeveritySuggestion {
			suggestions++
		} else {
			issues++
		}
	}
	return issues, suggestions
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
