package specs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"route-forge/internal/model"
)

// Messages reported for entry-level defects
const (
	MsgNotMapping          = "Specification entry must be a mapping"
	MsgMissingRouteDetails = "Missing required field: route_details"
	MsgMissingSteps        = "Missing required field: logical_steps"
	MsgDetailsNotMapping   = "route_details must be a mapping"
	MsgMissingPath         = "Missing 'path' in route_details"
	MsgBadPath             = "Path must start with a '/'"
	MsgMissingMethod       = "Missing 'method' in route_details"
	MsgBadMethod           = "Invalid HTTP method"
	MsgStepsNotList        = "logical_steps must be a list"
	MsgEmptySteps          = "logical_steps must not be empty"
	MsgMissingDescription  = "Missing 'description' in route_details"
	MsgInputNotList        = "input must be a list"
	MsgMiddlewareNotList   = "middleware must be a list of names"
)

// Validator checks specification entries.
// Field rules live in struct tags on the model types; this type maps rule
// failures to the messages users see.
type Validator struct {
	validate *validator.Validate
	strict   bool
}

// NewValidator creates a validator. Strict mode also checks input fields,
// descriptions and non-empty logical steps.
func NewValidator(strict bool) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v, strict: strict}
}

// ValidateNode checks one document entry and returns every issue found.
// All rules run independently so a user sees the full list at once.
func (v *Validator) ValidateNode(index int, node *yaml.Node) []model.ValidationIssue {
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return []model.ValidationIssue{{Index: index, Message: MsgNotMapping}}
	}

	path := entryPath(node)
	var msgs []fieldMessage

	details := mappingValue(node, "route_details")
	steps := mappingValue(node, "logical_steps")

	if details == nil {
		msgs = append(msgs, fieldMessage{"route_details", MsgMissingRouteDetails})
	}
	if steps == nil {
		msgs = append(msgs, fieldMessage{"logical_steps", MsgMissingSteps})
	}

	if details != nil {
		msgs = append(msgs, v.checkDetails(details)...)
	}

	if steps != nil {
		switch {
		case steps.Kind != yaml.SequenceNode:
			msgs = append(msgs, fieldMessage{"logical_steps", MsgStepsNotList})
		case v.strict && len(steps.Content) == 0:
			msgs = append(msgs, fieldMessage{"logical_steps", MsgEmptySteps})
		}
	}

	if v.strict {
		msgs = append(msgs, v.checkInput(mappingValue(node, "input"))...)
		if mw := mappingValue(node, "middleware"); mw != nil && !isScalarList(mw) {
			msgs = append(msgs, fieldMessage{"middleware", MsgMiddlewareNotList})
		}
	}

	issues := make([]model.ValidationIssue, 0, len(msgs))
	for _, m := range msgs {
		issues = append(issues, model.ValidationIssue{Index: index, Path: path, Field: m.field, Message: m.message})
	}
	return issues
}

type fieldMessage struct {
	field   string
	message string
}

func (v *Validator) checkDetails(details *yaml.Node) []fieldMessage {
	if details.Kind != yaml.MappingNode {
		return []fieldMessage{{"route_details", MsgDetailsNotMapping}}
	}

	var rd model.RouteDetails
	if err := details.Decode(&rd); err != nil {
		return []fieldMessage{{"route_details", fmt.Sprintf("route_details is invalid: %v", err)}}
	}

	msgs := v.structMessages(rd, "route_details")
	if v.strict && strings.TrimSpace(rd.Description) == "" {
		msgs = append(msgs, fieldMessage{"route_details.description", MsgMissingDescription})
	}
	return msgs
}

func (v *Validator) checkInput(input *yaml.Node) []fieldMessage {
	if input == nil {
		return nil
	}
	if input.Kind != yaml.SequenceNode {
		return []fieldMessage{{"input", MsgInputNotList}}
	}

	var msgs []fieldMessage
	for i, item := range input.Content {
		prefix := fmt.Sprintf("input[%d]", i)
		var field model.InputField
		if err := item.Decode(&field); err != nil {
			msgs = append(msgs, fieldMessage{prefix, fmt.Sprintf("%s is invalid: %v", prefix, err)})
			continue
		}
		msgs = append(msgs, v.structMessages(field, prefix)...)
	}
	return msgs
}

// structMessages runs the struct tag rules and translates each failure
func (v *Validator) structMessages(s interface{}, prefix string) []fieldMessage {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldMessage{{prefix, err.Error()}}
	}

	msgs := make([]fieldMessage, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage{prefix + "." + fe.Field(), messageFor(prefix, fe)})
	}
	return msgs
}

func messageFor(prefix string, fe validator.FieldError) string {
	if prefix == "route_details" {
		switch fe.Field() + ":" + fe.Tag() {
		case "path:required":
			return MsgMissingPath
		case "path:startswith":
			return MsgBadPath
		case "method:required":
			return MsgMissingMethod
		case "method:oneof":
			return MsgBadMethod
		}
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Missing '%s' in %s", fe.Field(), prefix)
	case "oneof":
		return fmt.Sprintf("%s.%s must be one of: %s", prefix, fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s.%s failed rule '%s'", prefix, fe.Field(), fe.Tag())
	}
}

// resolve follows document and alias nodes to the underlying value
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return n
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return n
}

// mappingValue returns the value node for key, or nil when the key is absent
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

func isScalarList(n *yaml.Node) bool {
	if n.Kind != yaml.SequenceNode {
		return false
	}
	for _, item := range n.Content {
		if resolve(item).Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}

// entryPath extracts route_details.path for issue reporting, if present
func entryPath(entry *yaml.Node) string {
	if p := mappingValue(mappingValue(entry, "route_details"), "path"); p != nil && p.Kind == yaml.ScalarNode {
		return p.Value
	}
	return ""
}
