package gwtypes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type toolChoiceFunctionWire struct {
	Name string `json:"name"`
}

type toolChoiceObjectWire struct {
	Kind     string                 `json:"type"`
	Function toolChoiceFunctionWire `json:"function"`
}

// MarshalJSON renders "none"/"auto"/"required" as bare strings and a
// specific choice as {"type":"function","function":{"name":...}}.
func (tc ToolChoice) MarshalJSON() ([]byte, error) {
	switch tc.Kind {
	case ToolChoiceSpecific:
		return json.Marshal(toolChoiceObjectWire{
			Kind:     "function",
			Function: toolChoiceFunctionWire{Name: tc.Name},
		})
	case "":
		return json.Marshal(string(ToolChoiceAuto))
	default:
		return json.Marshal(string(tc.Kind))
	}
}

// UnmarshalJSON accepts either the bare string form or the specific-tool
// object form.
func (tc *ToolChoice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		tc.Kind = ToolChoiceAuto
		tc.Name = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch ToolChoiceKind(s) {
		case ToolChoiceNone, ToolChoiceAuto, ToolChoiceRequired:
			tc.Kind = ToolChoiceKind(s)
			tc.Name = ""
			return nil
		default:
			return fmt.Errorf("gwtypes: invalid tool_choice %q", s)
		}
	}
	var obj toolChoiceObjectWire
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Function.Name == "" {
		return fmt.Errorf("gwtypes: tool_choice object missing function.name")
	}
	tc.Kind = ToolChoiceSpecific
	tc.Name = obj.Function.Name
	return nil
}
