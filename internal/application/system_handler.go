package application

import (
	"context"

	"openproject-mcp-server/internal/domain"
)

// Tool name constants for connection checks
const (
	ToolTestConnection   = "test_connection"
	ToolCheckPermissions = "check_permissions"
)

// SystemHandler serves connectivity and identity tools.
type SystemHandler struct {
	baseHandler
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(clients ClientSource) *SystemHandler {
	return &SystemHandler{baseHandler{clients: clients}}
}

// ToolName returns the family name.
func (h *SystemHandler) ToolName() string {
	return "system"
}

// ListTools returns the system tools.
func (h *SystemHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		tool(ToolTestConnection, "Test the connection to the OpenProject API", nil),
		tool(ToolCheckPermissions, "Check user permissions and capabilities", nil),
	}
}

// Handle executes a system tool call.
func (h *SystemHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	switch req.Name {
	case ToolTestConnection:
		return h.handleTestConnection(ctx, req.Arguments)
	case ToolCheckPermissions:
		return h.handleCheckPermissions(ctx, req.Arguments)
	default:
		return nil, unknownTool("system", req.Name)
	}
}

// handleTestConnection reports failure as error-flagged tool output rather
// than a protocol error.
func (h *SystemHandler) handleTestConnection(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err == nil {
		var root *domain.Root
		if root, err = client.Root(ctx); err == nil {
			return domain.TextResponse(formatRoot(root)), nil
		}
	}

	resp := domain.TextResponse("❌ Connection failed: " + err.Error())
	resp.IsError = true
	return resp, nil
}

func (h *SystemHandler) handleCheckPermissions(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatCurrentUser(user)), nil
}
