package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"route-forge/internal/config"
	"route-forge/internal/logger"
	"route-forge/internal/model"
)

// FileName is written into the output directory
const FileName = "openapi.json"

// expressParam matches ":id" and the optional form ":id?"
var expressParam = regexp.MustCompile(`:(\w+)\??`)

// OpenAPIExporter documents the declared endpoints, independent of what the
// backend generated
type OpenAPIExporter struct {
	// Stateless
}

func NewOpenAPIExporter() *OpenAPIExporter {
	return &OpenAPIExporter{}
}

func (b *OpenAPIExporter) Export(summary *model.RunSummary, specs []*model.RouteSpecification, cfg *config.Config) error {
	doc, err := Build(specs)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cfg.Output.Dir, FileName), append(data, '\n'), 0644)
}

// Build assembles and validates an OpenAPI 3 document for specs
func Build(specs []*model.RouteSpecification) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "Route Forge API",
			Version: "1.0.0",
		},
		Paths: openapi3.NewPaths(),
	}

	for _, spec := range specs {
		if err := addEndpoint(doc, spec); err != nil {
			logger.Warn("OpenAPI: skipping entry %d: %v", spec.Index, err)
		}
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("generated OpenAPI document is invalid: %w", err)
	}
	return doc, nil
}

func addEndpoint(doc *openapi3.T, spec *model.RouteSpecification) error {
	method := spec.Method()
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	default:
		return fmt.Errorf("unsupported method %q", method)
	}

	fullPath, pathParams := ConvertPath(spec.Path())
	if fullPath == "" {
		return fmt.Errorf("empty path")
	}
	if doc.Paths.Value(fullPath) == nil && doc.Paths.Find(fullPath) != nil {
		return fmt.Errorf("path %s conflicts with an endpoint already documented", fullPath)
	}

	op := openapi3.NewOperation()
	op.Summary = spec.RouteDetails.Description
	op.OperationID = operationID(method, fullPath)
	op.Tags = []string{tag(fullPath)}

	inputs := make(map[string]model.InputField, len(spec.Input))
	for _, in := range spec.Input {
		inputs[in.Name] = in
	}

	// 1. Path parameters, typed from the declared input when present
	for _, name := range pathParams {
		param := openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())
		if in, ok := inputs[name]; ok {
			param = param.WithSchema(schemaFor(in.Type)).WithDescription(in.Description)
			delete(inputs, name)
		}
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: param})
	}

	// 2. Remaining input: request body for writes, query otherwise
	var rest []model.InputField
	for _, in := range spec.Input {
		if _, ok := inputs[in.Name]; ok {
			rest = append(rest, in)
		}
	}

	if hasBody(method) && len(rest) > 0 {
		body := openapi3.NewObjectSchema()
		for _, in := range rest {
			prop := schemaFor(in.Type)
			prop.Description = in.Description
			body = body.WithProperty(in.Name, prop)
		}
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(body),
		}
	} else {
		for _, in := range rest {
			param := openapi3.NewQueryParameter(in.Name).WithSchema(schemaFor(in.Type)).WithDescription(in.Description)
			op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: param})
		}
	}

	// 3. Response
	status, desc := http.StatusOK, "Successful response"
	if method == http.MethodPost {
		status, desc = http.StatusCreated, "Created"
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(status, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchema(openapi3.NewObjectSchema()),
		}),
	)

	doc.AddOperation(fullPath, method, op)
	return nil
}

// ConvertPath rewrites Express parameters ("/users/:id") to OpenAPI
// templates ("/users/{id}") and returns the parameter names in order
func ConvertPath(path string) (string, []string) {
	if path == "" {
		return "", nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var names []string
	converted := expressParam.ReplaceAllStringFunc(path, func(m string) string {
		name := expressParam.FindStringSubmatch(m)[1]
		names = append(names, name)
		return "{" + name + "}"
	})
	return converted, names
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// schemaFor maps declared input types to JSON Schema types
func schemaFor(inputType string) *openapi3.Schema {
	switch strings.ToLower(inputType) {
	case "number":
		return openapi3.NewFloat64Schema()
	case "integer":
		return openapi3.NewIntegerSchema()
	case "boolean":
		return openapi3.NewBoolSchema()
	case "object":
		return openapi3.NewObjectSchema()
	case "array":
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	}
	return openapi3.NewStringSchema()
}

func operationID(method, path string) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") {
			sb.WriteString("By")
			seg = strings.Trim(seg, "{}")
		}
		if seg == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(seg[:1]) + seg[1:])
	}
	return sb.String()
}

func tag(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, "{") {
			return seg
		}
	}
	return "default"
}
