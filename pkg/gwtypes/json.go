package gwtypes

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders Content as a flat string when possible, or as a
// block array when it was constructed in block form.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Blocks != nil {
		return json.Marshal(c.Blocks)
	}
	if c.Text != nil {
		return json.Marshal(*c.Text)
	}
	return json.Marshal("")
}

// UnmarshalJSON accepts either a JSON string or an array of content blocks,
// per the Message.content union in the data model.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		empty := ""
		c.Text = &empty
		c.Blocks = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Text = &s
		c.Blocks = nil
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	c.Blocks = blocks
	c.Text = nil
	return nil
}

// messageWire is the JSON transport shape of Message; Content is embedded
// as json.RawMessage so Content's custom (Un)MarshalJSON governs the
// string-or-blocks union independently of the surrounding struct.
type messageWire struct {
	Role       Role            `json:"role"`
	Content    json.RawMessage `json:"content"`
	Name       string          `json:"name,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	contentJSON, err := m.Content.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageWire{
		Role:       m.Role,
		Content:    contentJSON,
		Name:       m.Name,
		ToolCalls:  m.ToolCalls,
		ToolCallID: m.ToolCallID,
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var content Content
	if len(wire.Content) > 0 {
		if err := content.UnmarshalJSON(wire.Content); err != nil {
			return err
		}
	}
	m.Role = wire.Role
	m.Content = content
	m.Name = wire.Name
	m.ToolCalls = wire.ToolCalls
	m.ToolCallID = wire.ToolCallID
	return nil
}
