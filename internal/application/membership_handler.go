package application

import (
	"context"
	"fmt"

	"openproject-mcp-server/internal/domain"
)

// Tool name constants for membership operations
const (
	ToolListMemberships  = "list_memberships"
	ToolGetMembership    = "get_membership"
	ToolCreateMembership = "create_membership"
	ToolUpdateMembership = "update_membership"
	ToolDeleteMembership = "delete_membership"
)

// MembershipHandler serves project membership tools.
type MembershipHandler struct {
	baseHandler
}

// NewMembershipHandler creates a MembershipHandler.
func NewMembershipHandler(clients ClientSource) *MembershipHandler {
	return &MembershipHandler{baseHandler{clients: clients}}
}

// ToolName returns the family name.
func (h *MembershipHandler) ToolName() string {
	return "memberships"
}

// ListTools returns the membership tools.
func (h *MembershipHandler) ListTools() []domain.ToolDefinition {
	membershipID := map[string]any{"membership_id": domain.IntegerProp("The membership ID")}

	return []domain.ToolDefinition{
		tool(ToolListMemberships, "List project memberships", map[string]any{
			"project_id": domain.IntegerProp("Filter by specific project (optional)"),
			"user_id":    domain.IntegerProp("Filter by specific user (optional)"),
			"offset":     domain.IntegerProp("Page number to start from (1-based, optional)"),
			"page_size":  domain.IntegerProp("Number of results per page (optional, max: 100)"),
		}),
		tool(ToolGetMembership, "Get detailed information about a specific membership", membershipID, "membership_id"),
		tool(ToolCreateMembership, "Create a new project membership", map[string]any{
			"project_id": domain.IntegerProp("The project ID"),
			"user_id":    domain.IntegerProp("User ID (required if group_id not provided, takes priority over group_id)"),
			"group_id":   domain.IntegerProp("Group ID (required if user_id not provided)"),
			"role_ids":   domain.IntegerArrayProp("Array of role IDs (optional)"),
			"role_id":    domain.IntegerProp("Single role ID (optional, merged with role_ids)"),
		}, "project_id"),
		tool(ToolUpdateMembership, "Update the roles of an existing membership", map[string]any{
			"membership_id": domain.IntegerProp("The membership ID"),
			"role_ids":      domain.IntegerArrayProp("Array of role IDs (optional)"),
			"role_id":       domain.IntegerProp("Single role ID (optional, merged with role_ids)"),
		}, "membership_id"),
		tool(ToolDeleteMembership, "Delete a membership", membershipID, "membership_id"),
	}
}

// Handle executes a membership tool call.
func (h *MembershipHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	switch req.Name {
	case ToolListMemberships:
		return h.handleList(ctx, req.Arguments)
	case ToolGetMembership:
		return h.handleGet(ctx, req.Arguments)
	case ToolCreateMembership:
		return h.handleCreate(ctx, req.Arguments)
	case ToolUpdateMembership:
		return h.handleUpdate(ctx, req.Arguments)
	case ToolDeleteMembership:
		return h.handleDelete(ctx, req.Arguments)
	default:
		return nil, unknownTool("membership", req.Name)
	}
}

func (h *MembershipHandler) handleList(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	projectID, err := getIntParam(args, "project_id", false)
	if err != nil {
		return nil, err
	}
	userID, err := getIntParam(args, "user_id", false)
	if err != nil {
		return nil, err
	}
	page, err := getPageParams(args)
	if err != nil {
		return nil, err
	}

	memberships, err := client.ListMemberships(ctx, projectID, userID, page)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatMemberships(memberships)), nil
}

func (h *MembershipHandler) handleGet(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "membership_id", true)
	if err != nil {
		return nil, err
	}

	membership, err := client.GetMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatMembership(membership)), nil
}

func (h *MembershipHandler) handleCreate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	create := domain.MembershipCreate{}
	if create.ProjectID, err = getIntParam(args, "project_id", true); err != nil {
		return nil, err
	}
	if create.UserID, err = getIntParam(args, "user_id", false); err != nil {
		return nil, err
	}
	if create.GroupID, err = getIntParam(args, "group_id", false); err != nil {
		return nil, err
	}
	if create.RoleIDs, err = getIntArrayParam(args, "role_ids"); err != nil {
		return nil, err
	}
	if create.RoleID, err = getIntParam(args, "role_id", false); err != nil {
		return nil, err
	}

	membership, err := client.CreateMembership(ctx, create)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Membership created successfully (ID: %d)", membership.ID)), nil
}

func (h *MembershipHandler) handleUpdate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "membership_id", true)
	if err != nil {
		return nil, err
	}
	patch := domain.MembershipPatch{}
	if patch.RoleIDs, err = getIntArrayParam(args, "role_ids"); err != nil {
		return nil, err
	}
	if patch.RoleID, err = getIntParam(args, "role_id", false); err != nil {
		return nil, err
	}

	if _, err := client.UpdateMembership(ctx, id, patch); err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Membership #%d updated successfully", id)), nil
}

func (h *MembershipHandler) handleDelete(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "membership_id", true)
	if err != nil {
		return nil, err
	}

	if err := client.DeleteMembership(ctx, id); err != nil {
		return nil, err
	}
	return deleted("Membership", id), nil
}
