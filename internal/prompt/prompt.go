// Package prompt assembles the text sent to the generation backend.
//
// Every stage has a fixed template with an enumerated placeholder set.
// Build is a pure function of its inputs: the same inputs always produce
// the same payload.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/valyala/fasttemplate"

	"route-forge/internal/model"
)

const (
	startTag = "{"
	endTag   = "}"
)

// Inputs maps placeholder names to their values
type Inputs map[string]string

// Payload is an assembled prompt ready to send
type Payload struct {
	Stage   model.Stage
	Profile Profile
	System  string
	User    string
}

// MissingPlaceholderError reports inputs that do not match the stage's placeholder set
type MissingPlaceholderError struct {
	Stage   model.Stage
	Missing []string
	Unknown []string
}

func (e *MissingPlaceholderError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown "+strings.Join(e.Unknown, ", "))
	}
	return fmt.Sprintf("%s prompt: %s", e.Stage, strings.Join(parts, "; "))
}

// Build renders the template of stage with inputs.
// Inputs must name exactly the stage's placeholders.
func Build(stage model.Stage, inputs Inputs) (*Payload, error) {
	tpl, ok := templates[stage]
	if !ok {
		return nil, fmt.Errorf("no prompt template for stage %q", stage)
	}

	if err := checkInputs(tpl, inputs); err != nil {
		return nil, err
	}

	system, err := render(tpl.System, inputs)
	if err != nil {
		return nil, fmt.Errorf("%s system prompt: %w", stage, err)
	}
	user, err := render(tpl.User, inputs)
	if err != nil {
		return nil, fmt.Errorf("%s user prompt: %w", stage, err)
	}

	return &Payload{
		Stage:   stage,
		Profile: tpl.Profile,
		System:  system,
		User:    user,
	}, nil
}

func checkInputs(tpl Template, inputs Inputs) error {
	declared := make(map[string]bool, len(tpl.Placeholders))
	var missing, unknown []string

	for _, name := range tpl.Placeholders {
		declared[name] = true
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range inputs {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}

	if len(missing) == 0 && len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &MissingPlaceholderError{Stage: tpl.Stage, Missing: missing, Unknown: unknown}
}

func render(text string, inputs Inputs) (string, error) {
	return fasttemplate.ExecuteFuncStringWithErr(text, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		value, ok := inputs[tag]
		if !ok {
			return 0, fmt.Errorf("undeclared placeholder {%s}", tag)
		}
		return w.Write([]byte(value))
	})
}

// Fingerprint returns a stable SHA-256 hex digest of the payload
func Fingerprint(p *Payload) string {
	h := sha256.New()
	for _, part := range []string{string(p.Stage), string(p.Profile), p.System, p.User} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Stage input builders. Each takes exactly what its stage needs.

// RouteInputs builds the route stage inputs
func RouteInputs(spec *model.RouteSpecification, ctx *model.ProjectContext) Inputs {
	return Inputs{
		"route_details":     spec.DetailsJSON(),
		"example_route":     ctx.ExampleRoute,
		"project_info":      ctx.ProjectInfo,
		"project_structure": ctx.ProjectStructure,
	}
}

// ControllerInputs builds the controller stage inputs
func ControllerInputs(spec *model.RouteSpecification, ctx *model.ProjectContext, routeFile string) Inputs {
	return Inputs{
		"route_file":         routeFile,
		"example_controller": ctx.ExampleController,
		"project_info":       ctx.ProjectInfo,
		"project_structure":  ctx.ProjectStructure,
		"route_path":         spec.Path(),
	}
}

// ServiceInputs builds the service stage inputs
func ServiceInputs(ctx *model.ProjectContext, routeFile, controllerFile string) Inputs {
	return Inputs{
		"route_file":        routeFile,
		"controller_file":   controllerFile,
		"example_service":   ctx.ExampleService,
		"project_info":      ctx.ProjectInfo,
		"db_schema":         ctx.DBSchema,
		"project_structure": ctx.ProjectStructure,
	}
}

// DocsInputs builds the docs stage inputs
func DocsInputs(ctx *model.ProjectContext, routeFile string) Inputs {
	return Inputs{
		"route_file":      routeFile,
		"example_swagger": ctx.ExampleSwagger,
	}
}

// TestInputs builds the tests stage inputs
func TestInputs(ctx *model.ProjectContext, routeFile, controllerFile, serviceFile string) Inputs {
	return Inputs{
		"route_file":        routeFile,
		"controller_file":   controllerFile,
		"service_file":      serviceFile,
		"example_test_file": ctx.ExampleTest,
		"project_structure": ctx.ProjectStructure,
	}
}
