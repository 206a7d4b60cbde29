package domain

import (
	"context"
)

// ToolHandler serves the tools of one resource family (projects, work
// packages, memberships and so on).
type ToolHandler interface {
	// Handle executes a tool call. Failures are returned as errors and
	// mapped to JSON-RPC errors by the server.
	Handle(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

	// ListTools returns the tools this handler serves.
	ListTools() []ToolDefinition

	// ToolName returns the family name, used in logs.
	ToolName() string
}
