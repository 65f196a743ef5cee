// Package specs loads and validates the route specification document.
//
// The document is a YAML list. Each entry carries route_details (path, method,
// description), input fields, logical_steps, middleware names and optional
// file_names overrides. Malformed entries are dropped and reported; a malformed
// document yields a *ParseError and no specifications.
package specs

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"route-forge/internal/logger"
	"route-forge/internal/model"
)

// ParseError means the document itself could not be read or is not a list
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse specification document: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse specification document %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of loading a document
type Result struct {
	Specs  []*model.RouteSpecification
	Issues []model.ValidationIssue
	Total  int // entries in the document, valid or not
}

// Rejected counts entries that were dropped
func (r *Result) Rejected() int {
	return r.Total - len(r.Specs)
}

// Loader reads specification documents from a filesystem
type Loader struct {
	fs        afero.Fs
	validator *Validator
}

// NewLoader creates a loader. A nil fs means the OS filesystem.
func NewLoader(fs afero.Fs, strict bool) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs, validator: NewValidator(strict)}
}

// Load reads and validates the document at path
func (l *Loader) Load(path string) (*Result, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	res, err := l.Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return res, nil
}

// Parse validates an in-memory document
func (l *Loader) Parse(data []byte) (*Result, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	res := &Result{}

	root := resolve(&doc)
	if root == nil || root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		logger.Warn("Specification document is empty")
		return res, nil
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		logger.Warn("Specification document is empty")
		return res, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, &ParseError{Err: fmt.Errorf("top level must be a list of route specifications, got %s", kindName(root.Kind))}
	}

	res.Total = len(root.Content)
	for i, item := range root.Content {
		index := i + 1

		issues := l.validator.ValidateNode(index, item)
		if len(issues) == 0 {
			spec, err := decode(index, item)
			if err != nil {
				issues = append(issues, model.ValidationIssue{Index: index, Path: entryPath(resolve(item)), Message: "Invalid entry: " + err.Error()})
			} else {
				res.Specs = append(res.Specs, spec)
				continue
			}
		}

		path := issues[0].Path
		if path == "" {
			path = "unknown"
		}
		logger.Warn("Invalid route specification %d for path '%s':", index, path)
		for _, issue := range issues {
			logger.Warn("  - %s", issue.Message)
		}
		res.Issues = append(res.Issues, issues...)
	}

	logger.Debug("Loaded %d of %d route specifications", len(res.Specs), res.Total)
	return res, nil
}

func decode(index int, node *yaml.Node) (*model.RouteSpecification, error) {
	var spec model.RouteSpecification
	if err := resolve(node).Decode(&spec); err != nil {
		return nil, err
	}
	spec.Index = index
	return &spec, nil
}

// Select returns the specification with the given 1-based document index
func Select(all []*model.RouteSpecification, index int) (*model.RouteSpecification, bool) {
	for _, s := range all {
		if s.Index == index {
			return s, true
		}
	}
	return nil, false
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.SequenceNode:
		return "a list"
	default:
		return "an unsupported node"
	}
}
