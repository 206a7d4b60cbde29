package domain

// MCPProtocolVersion is the protocol revision this server speaks.
const MCPProtocolVersion = "2024-11-05"

// ToolDefinition describes a tool that MCP clients can call.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// ToolRequest is the params object of a tools/call request.
type ToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResponse is the result of a tools/call request.
type ToolResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one piece of tool output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextResponse wraps text in a single-block ToolResponse.
func TextResponse(text string) *ToolResponse {
	return &ToolResponse{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

// JSONSchema is the input schema of a tool.
type JSONSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// Schema builds an object schema from properties.
func Schema(properties map[string]any, required ...string) JSONSchema {
	if properties == nil {
		properties = map[string]any{}
	}
	return JSONSchema{Type: "object", Properties: properties, Required: required}
}

// IntegerProp describes an integer argument.
func IntegerProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

// NumberProp describes a numeric argument.
func NumberProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

// StringProp describes a string argument.
func StringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// EnumProp describes a string argument restricted to values.
func EnumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

// BooleanProp describes a boolean argument.
func BooleanProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

// IntegerArrayProp describes an array of integers.
func IntegerArrayProp(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "integer"},
	}
}
