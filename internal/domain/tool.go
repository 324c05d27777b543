package domain

import "encoding/json"

// ToolDefinition describes one MCP tool exposed by the server. Definitions
// are immutable after registry construction; RequiredRole is the minimum
// privilege a caller must hold to list or invoke the tool.
type ToolDefinition struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"input_schema"`
	RequiredRole Role            `json:"required_role"`
}
