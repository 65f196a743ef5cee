package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllowedMethods lists the HTTP methods a route specification may declare
var AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

// InputTypes lists the field types accepted in strict validation
var InputTypes = []string{"string", "number", "boolean", "object", "array"}

// RouteSpecification is one entry of the specification document
type RouteSpecification struct {
	// 1-based position in the source document
	Index int `json:"-" yaml:"-"`

	RouteDetails RouteDetails  `json:"route_details" yaml:"route_details"`
	Input        []InputField  `json:"input,omitempty" yaml:"input"`
	LogicalSteps []LogicalStep `json:"logical_steps" yaml:"logical_steps"`
	Middleware   []string      `json:"middleware,omitempty" yaml:"middleware"`
	FileNames    FileNames     `json:"file_names,omitzero" yaml:"file_names"`
}

// RouteDetails holds the endpoint identity
type RouteDetails struct {
	Path        string `json:"path" yaml:"path" validate:"required,startswith=/"`
	Method      string `json:"method" yaml:"method" validate:"required,oneof=GET POST PUT DELETE PATCH"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// InputField is a named, typed request field
type InputField struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Type        string `json:"type" yaml:"type" validate:"required,oneof=string number boolean object array"`
	Description string `json:"description,omitempty" yaml:"description" validate:"required"`
}

// LogicalStep describes one step of the endpoint's behavior.
// The document may give a step as a plain string or as a {step, description} mapping.
type LogicalStep struct {
	Step        string `json:"step" yaml:"step"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// UnmarshalYAML accepts both the scalar and the mapping form
func (s *LogicalStep) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Step = value.Value
		return nil
	}

	type plain LogicalStep
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = LogicalStep(p)
	return nil
}

// FileNames overrides the output filename per artifact kind
type FileNames struct {
	Route      string `json:"route,omitempty" yaml:"route"`
	Controller string `json:"controller,omitempty" yaml:"controller"`
	Service    string `json:"service,omitempty" yaml:"service"`
	Swagger    string `json:"swagger,omitempty" yaml:"swagger"`
}

// For returns the override for kind, or "" if none
func (f FileNames) For(kind ArtifactKind) string {
	switch kind {
	case KindRoute:
		return f.Route
	case KindController:
		return f.Controller
	case KindService:
		return f.Service
	case KindSwagger:
		return f.Swagger
	}
	return ""
}

// FileNameFor resolves the destination filename for a bundle artifact
func (r *RouteSpecification) FileNameFor(kind ArtifactKind) string {
	if name := strings.TrimSpace(r.FileNames.For(kind)); name != "" {
		return name
	}
	return kind.DefaultFileName()
}

// Path is a shorthand for RouteDetails.Path
func (r *RouteSpecification) Path() string {
	return r.RouteDetails.Path
}

// Method is a shorthand for RouteDetails.Method
func (r *RouteSpecification) Method() string {
	return r.RouteDetails.Method
}

// DetailsJSON renders route_details as indented JSON for the route prompt
func (r *RouteSpecification) DetailsJSON() string {
	b, err := json.MarshalIndent(r.RouteDetails, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Label returns "METHOD /path" for log lines and reports
func (r *RouteSpecification) Label() string {
	return r.RouteDetails.Method + " " + r.RouteDetails.Path
}

// ValidationIssue describes one defect found in a specification entry
type ValidationIssue struct {
	Index   int    `json:"index"`
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i ValidationIssue) String() string {
	path := i.Path
	if path == "" {
		path = "unknown"
	}
	return fmt.Sprintf("entry %d (%s): %s", i.Index, path, i.Message)
}
