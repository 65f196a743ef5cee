// Package reference loads the project reference data that every prompt embeds:
// project metadata, database schema, middleware catalog, project structure and
// the example artifacts. Every file is optional.
package reference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"route-forge/internal/config"
	"route-forge/internal/logger"
	"route-forge/internal/model"
)

// LoadError records a reference file that could not be used
type LoadError struct {
	Name string // e.g. "db_schema"
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("reference %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader reads reference files with encoding fallback
type Loader struct {
	fs        afero.Fs
	encodings []string
}

// NewLoader creates a loader. A nil fs means the OS filesystem;
// encodings are tried in order for files that are not valid UTF-8.
func NewLoader(fs afero.Fs, encodings []string) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs, encodings: encodings}
}

// Load builds the project context. It never fails: each unusable file
// degrades to an empty value and is returned as a *LoadError.
func (l *Loader) Load(ref config.ReferenceConfig) (*model.ProjectContext, []*LoadError) {
	ctx := model.NewProjectContext()
	var errs []*LoadError

	jsonDocs := []struct {
		name string
		path string
		dst  *string
	}{
		{"project_info", ref.ProjectInfo, &ctx.ProjectInfo},
		{"db_schema", ref.DBSchema, &ctx.DBSchema},
		{"middleware", ref.Middleware, &ctx.Middleware},
		{"project_structure", ref.ProjectStructure, &ctx.ProjectStructure},
	}
	for _, d := range jsonDocs {
		text, err := l.readJSON(d.path)
		if err != nil {
			errs = append(errs, &LoadError{Name: d.name, Path: d.path, Err: err})
			continue
		}
		*d.dst = text
	}

	examples := []struct {
		name string
		path string
		dst  *string
	}{
		{"example_route", ref.ExampleRoute, &ctx.ExampleRoute},
		{"example_controller", ref.ExampleController, &ctx.ExampleController},
		{"example_service", ref.ExampleService, &ctx.ExampleService},
		{"example_test", ref.ExampleTest, &ctx.ExampleTest},
		{"example_swagger", ref.ExampleSwagger, &ctx.ExampleSwagger},
	}
	for _, e := range examples {
		text, err := l.ReadText(e.path)
		if err != nil {
			errs = append(errs, &LoadError{Name: e.name, Path: e.path, Err: err})
			continue
		}
		*e.dst = text
	}

	for _, err := range errs {
		logger.Warn("Error loading %s: %v", err.Name, err.Err)
	}
	logger.Debug("Reference context loaded (%d files unavailable)", len(errs))

	return ctx, errs
}

// ReadText reads a file and decodes it to UTF-8
func (l *Loader) ReadText(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no path configured")
	}
	raw, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return "", err
	}
	return Decode(raw, l.encodings), nil
}

// readJSON reads a JSON document and re-indents it with two spaces
func (l *Loader) readJSON(path string) (string, error) {
	text, err := l.ReadText(path)
	if err != nil {
		return "", err
	}
	return IndentJSON([]byte(text))
}

// IndentJSON validates and pretty-prints a JSON document (2-space indent)
func IndentJSON(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !json.Valid(data) {
		return "", fmt.Errorf("invalid JSON")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Decode converts raw bytes to a UTF-8 string.
// Valid UTF-8 is returned as is; otherwise each encoding hint is tried in
// order and the first clean decode wins. Undecodable input is returned raw.
func Decode(raw []byte, encodings []string) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	for _, name := range encodings {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
			continue
		}
		enc, err := htmlindex.Get(name)
		if err != nil {
			logger.Debug("Unknown encoding hint %q: %v", name, err)
			continue
		}
		decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil || !utf8.Valid(decoded) || bytes.ContainsRune(decoded, utf8.RuneError) {
			continue
		}
		return string(decoded)
	}

	return string(raw)
}
