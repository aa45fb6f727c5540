package tools

import (
	"encoding/json"
	"fmt"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Validator enforces tool_choice variant rules and validates each
// emitted ToolCall's arguments against its function's declared
// JSON-Schema-subset parameters.
type Validator struct {
	registry *Registry
}

// NewValidator builds a validator backed by the given registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// ValidateToolChoice checks that a request's tool_choice variant is
// consistent with its tools list (gwtypes.ChatRequest.Validate already
// enforces the "specific names a present tool" invariant; this adds
// the registry-aware checks that only make sense once tools resolve
// against registered definitions).
func (v *Validator) ValidateToolChoice(req *gwtypes.ChatRequest) error {
	if req.ToolChoice == nil {
		return nil
	}
	switch req.ToolChoice.Kind {
	case gwtypes.ToolChoiceNone:
		return nil
	case gwtypes.ToolChoiceAuto:
		if len(v.registry.ListAsTools()) == 0 {
			return gwerrors.New(gwerrors.BadRequest, "tool_choice=auto requires a non-empty tool registry")
		}
		return nil
	case gwtypes.ToolChoiceRequired:
		if len(v.registry.RequiredOnly()) == 0 {
			return gwerrors.New(gwerrors.BadRequest, "tool_choice=required but the registry has no required function")
		}
		return nil
	case gwtypes.ToolChoiceSpecific:
		for _, t := range req.Tools {
			if t.Function.Name == req.ToolChoice.Name {
				return nil
			}
		}
		return gwerrors.New(gwerrors.BadRequest, fmt.Sprintf("tool_choice names %q which is not present in tools", req.ToolChoice.Name))
	default:
		return gwerrors.New(gwerrors.BadRequest, fmt.Sprintf("unrecognized tool_choice kind %q", req.ToolChoice.Kind))
	}
}

// ValidateArguments checks a tool call's JSON arguments against the
// function definition's declared parameters, a JSON-Schema subset
// covering "type", "properties", and "required" at the object's top
// level (sufficient for every tool shape spec.md names; nested schema
// composition (oneOf/allOf/$ref) is out of scope). strict rejects
// properties not named in the schema; otherwise unknown properties
// pass through.
func (v *Validator) ValidateArguments(def gwtypes.FunctionDefinition, call gwtypes.ToolCall, strict bool) error {
	var args map[string]interface{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return gwerrors.Wrap(gwerrors.BadRequest, "tool call arguments are not valid JSON", err)
		}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	schema := def.Parameters
	if schema == nil {
		return nil
	}

	if declaredType, ok := schema["type"].(string); ok && declaredType != "object" {
		return gwerrors.New(gwerrors.BadRequest, fmt.Sprintf("tool %q: only object-typed parameter schemas are supported", def.Name))
	}

	properties, _ := schema["properties"].(map[string]interface{})

	if required, ok := schema["required"].([]interface{}); ok {
		for _, r := range required {
			name, ok := r.(string)
			if !ok {
				continue
			}
			if _, present := args[name]; !present {
				return gwerrors.New(gwerrors.BadRequest, fmt.Sprintf("tool %q: missing required argument %q", def.Name, name))
			}
		}
	}

	for name, value := range args {
		propSchema, declared := properties[name]
		if !declared {
			if strict {
				return gwerrors.New(gwerrors.BadRequest, fmt.Sprintf("tool %q: unexpected argument %q (strict mode)", def.Name, name))
			}
			continue
		}
		propMap, ok := propSchema.(map[string]interface{})
		if !ok {
			continue
		}
		if err := checkType(def.Name, name, value, propMap); err != nil {
			return err
		}
	}

	return nil
}

func checkType(funcName, argName string, value interface{}, propSchema map[string]interface{}) error {
	declared, ok := propSchema["type"].(string)
	if !ok {
		return nil
	}
	if jsonTypeMatches(declared, value) {
		return nil
	}
	return gwerrors.New(gwerrors.BadRequest, fmt.Sprintf("tool %q: argument %q expected type %q", funcName, argName, declared))
}

func jsonTypeMatches(declared string, value interface{}) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "null":
		return value == nil
	default:
		return true
	}
}
