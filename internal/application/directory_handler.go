package application

import (
	"context"
	"fmt"

	"openproject-mcp-server/internal/domain"
)

// Tool name constants for lookup operations
const (
	ToolListTypes      = "list_types"
	ToolListUsers      = "list_users"
	ToolGetUser        = "get_user"
	ToolListStatuses   = "list_statuses"
	ToolListPriorities = "list_priorities"
	ToolListRoles      = "list_roles"
	ToolGetRole        = "get_role"
)

// DirectoryHandler serves read-only lookups: types, users, statuses,
// priorities and roles.
type DirectoryHandler struct {
	baseHandler
}

// NewDirectoryHandler creates a DirectoryHandler.
func NewDirectoryHandler(clients ClientSource) *DirectoryHandler {
	return &DirectoryHandler{baseHandler{clients: clients}}
}

// ToolName returns the family name.
func (h *DirectoryHandler) ToolName() string {
	return "directory"
}

// ListTools returns the lookup tools.
func (h *DirectoryHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		tool(ToolListTypes, "List available work package types", map[string]any{
			"project_id": domain.IntegerProp("Filter types by project (optional)"),
		}),
		tool(ToolListUsers, "List all users in the OpenProject instance", map[string]any{
			"active_only": domain.BooleanProp("Show only active users (default: true)"),
			"offset":      domain.IntegerProp("Page number to start from (1-based, optional)"),
			"page_size":   domain.IntegerProp("Number of results per page (optional, max: 100)"),
		}),
		tool(ToolGetUser, "Get detailed information about a specific user", map[string]any{
			"user_id": domain.IntegerProp("The user ID"),
		}, "user_id"),
		tool(ToolListStatuses, "List all available work package statuses", nil),
		tool(ToolListPriorities, "List all available work package priorities", nil),
		tool(ToolListRoles, "List all available roles", nil),
		tool(ToolGetRole, "Get detailed information about a specific role", map[string]any{
			"role_id": domain.IntegerProp("The role ID"),
		}, "role_id"),
	}
}

// Handle executes a lookup tool call.
func (h *DirectoryHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, req.Arguments)
	if err != nil {
		return nil, err
	}
	args := req.Arguments

	switch req.Name {
	case ToolListTypes:
		projectID, err := getIntParam(args, "project_id", false)
		if err != nil {
			return nil, err
		}
		types, err := client.ListTypes(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return domain.TextResponse(formatNamed("🏷️  Work Package Types", "No types found.", types.Elements,
			func(t domain.Type) (int, string) { return t.ID, t.Name })), nil

	case ToolListUsers:
		activeOnly, err := getBoolParam(args, "active_only", true)
		if err != nil {
			return nil, err
		}
		page, err := getPageParams(args)
		if err != nil {
			return nil, err
		}
		users, err := client.ListUsers(ctx, activeOnly, page)
		if err != nil {
			return nil, err
		}
		return domain.TextResponse(formatUsers(users)), nil

	case ToolGetUser:
		id, err := getIntParam(args, "user_id", true)
		if err != nil {
			return nil, err
		}
		user, err := client.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		return domain.TextResponse(formatUser(user)), nil

	case ToolListStatuses:
		statuses, err := client.ListStatuses(ctx)
		if err != nil {
			return nil, err
		}
		return domain.TextResponse(formatNamed("📊 Work Package Statuses", "No statuses found.", statuses.Elements,
			func(s domain.Status) (int, string) { return s.ID, s.Name })), nil

	case ToolListPriorities:
		priorities, err := client.ListPriorities(ctx)
		if err != nil {
			return nil, err
		}
		return domain.TextResponse(formatNamed("⭐ Work Package Priorities", "No priorities found.", priorities.Elements,
			func(p domain.Priority) (int, string) { return p.ID, p.Name })), nil

	case ToolListRoles:
		roles, err := client.ListRoles(ctx)
		if err != nil {
			return nil, err
		}
		return domain.TextResponse(formatNamed("🎭 Roles", "No roles found.", roles.Elements,
			func(r domain.Role) (int, string) { return r.ID, r.Name })), nil

	case ToolGetRole:
		id, err := getIntParam(args, "role_id", true)
		if err != nil {
			return nil, err
		}
		role, err := client.GetRole(ctx, id)
		if err != nil {
			return nil, err
		}
		return domain.TextResponse(fmt.Sprintf("🎭 **%s**\n\n- **ID**: %d\n", role.Name, role.ID)), nil

	default:
		return nil, unknownTool("directory", req.Name)
	}
}
