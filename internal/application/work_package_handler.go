package application

import (
	"context"
	"fmt"

	"openproject-mcp-server/internal/domain"
	"openproject-mcp-server/internal/infrastructure"
)

// Tool name constants for work package operations
const (
	ToolListWorkPackages        = "list_work_packages"
	ToolGetWorkPackage          = "get_work_package"
	ToolCreateWorkPackage       = "create_work_package"
	ToolUpdateWorkPackage       = "update_work_package"
	ToolDeleteWorkPackage       = "delete_work_package"
	ToolSetWorkPackageParent    = "set_work_package_parent"
	ToolRemoveWorkPackageParent = "remove_work_package_parent"
	ToolListWorkPackageChildren = "list_work_package_children"
)

// WorkPackageHandler serves work package and hierarchy tools.
type WorkPackageHandler struct {
	baseHandler
}

// NewWorkPackageHandler creates a WorkPackageHandler.
func NewWorkPackageHandler(clients ClientSource) *WorkPackageHandler {
	return &WorkPackageHandler{baseHandler{clients: clients}}
}

// ToolName returns the family name.
func (h *WorkPackageHandler) ToolName() string {
	return "work_packages"
}

// ListTools returns the work package tools.
func (h *WorkPackageHandler) ListTools() []domain.ToolDefinition {
	wpID := map[string]any{"work_package_id": domain.IntegerProp("The work package ID")}

	return []domain.ToolDefinition{
		tool(ToolListWorkPackages, "List work packages with optional filtering", map[string]any{
			"project_id": domain.IntegerProp("Filter by project ID (optional)"),
			"status":     domain.EnumProp("Status filter (default: open)", "open", "closed", "all"),
			"offset":     domain.IntegerProp("Page number to start from (1-based, optional)"),
			"page_size":  domain.IntegerProp("Number of results per page (optional, max: 100)"),
		}),
		tool(ToolGetWorkPackage, "Get detailed information about a specific work package", wpID, "work_package_id"),
		tool(ToolCreateWorkPackage, "Create a new work package", map[string]any{
			"project_id":  domain.IntegerProp("The project ID"),
			"subject":     domain.StringProp("Work package title"),
			"type_id":     domain.IntegerProp("Type ID (e.g., 1 for Task)"),
			"description": domain.StringProp("Description in Markdown format (optional)"),
			"priority_id": domain.IntegerProp("Priority ID (optional)"),
			"assignee_id": domain.IntegerProp("User ID to assign to (optional)"),
		}, "project_id", "subject", "type_id"),
		tool(ToolUpdateWorkPackage, "Update an existing work package", map[string]any{
			"work_package_id": domain.IntegerProp("The work package ID"),
			"subject":         domain.StringProp("Work package title (optional)"),
			"description":     domain.StringProp("Description in Markdown format (optional)"),
			"type_id":         domain.IntegerProp("Type ID (optional)"),
			"status_id":       domain.IntegerProp("Status ID (optional)"),
			"priority_id":     domain.IntegerProp("Priority ID (optional)"),
			"assignee_id":     domain.IntegerProp("User ID to assign to (optional)"),
			"percentage_done": domain.IntegerProp("Completion percentage 0-100 (optional)"),
			"lock_version":    domain.IntegerProp("Lock version for optimistic locking (optional, read when omitted)"),
		}, "work_package_id"),
		tool(ToolDeleteWorkPackage, "Delete a work package", wpID, "work_package_id"),
		tool(ToolSetWorkPackageParent, "Set a parent for a work package (create parent-child relationship)", map[string]any{
			"work_package_id": domain.IntegerProp("The work package ID to become a child"),
			"parent_id":       domain.IntegerProp("The work package ID to become the parent"),
		}, "work_package_id", "parent_id"),
		tool(ToolRemoveWorkPackageParent, "Remove parent relationship from a work package (make it top-level)", wpID, "work_package_id"),
		tool(ToolListWorkPackageChildren, "List all child work packages of a parent", map[string]any{
			"parent_id":           domain.IntegerProp("The parent work package ID"),
			"include_descendants": domain.BooleanProp("Include grandchildren and all descendants (default: false)"),
		}, "parent_id"),
	}
}

// Handle executes a work package tool call.
func (h *WorkPackageHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	switch req.Name {
	case ToolListWorkPackages:
		return h.handleList(ctx, req.Arguments)
	case ToolGetWorkPackage:
		return h.handleGet(ctx, req.Arguments)
	case ToolCreateWorkPackage:
		return h.handleCreate(ctx, req.Arguments)
	case ToolUpdateWorkPackage:
		return h.handleUpdate(ctx, req.Arguments)
	case ToolDeleteWorkPackage:
		return h.handleDelete(ctx, req.Arguments)
	case ToolSetWorkPackageParent:
		return h.handleSetParent(ctx, req.Arguments)
	case ToolRemoveWorkPackageParent:
		return h.handleRemoveParent(ctx, req.Arguments)
	case ToolListWorkPackageChildren:
		return h.handleChildren(ctx, req.Arguments)
	default:
		return nil, unknownTool("work package", req.Name)
	}
}

func (h *WorkPackageHandler) handleList(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	projectID, err := getIntParam(args, "project_id", false)
	if err != nil {
		return nil, err
	}
	statusArg, err := getStringParam(args, "status", false)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseStatusClass(statusArg)
	if err != nil {
		return nil, err
	}
	page, err := getPageParams(args)
	if err != nil {
		return nil, err
	}

	wps, err := client.ListWorkPackages(ctx, infrastructure.WorkPackageQuery{
		ProjectID: projectID,
		Status:    status,
		Page:      page,
	})
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatWorkPackages(wps)), nil
}

func (h *WorkPackageHandler) handleGet(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "work_package_id", true)
	if err != nil {
		return nil, err
	}

	wp, err := client.GetWorkPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatWorkPackage(wp)), nil
}

func (h *WorkPackageHandler) handleCreate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	create := domain.WorkPackageCreate{}
	if create.Project, err = getIntParam(args, "project_id", true); err != nil {
		return nil, err
	}
	if create.Subject, err = getStringParam(args, "subject", true); err != nil {
		return nil, err
	}
	if create.Type, err = getIntParam(args, "type_id", true); err != nil {
		return nil, err
	}
	if create.Description, err = getStringParam(args, "description", false); err != nil {
		return nil, err
	}
	if create.PriorityID, err = getIntParam(args, "priority_id", false); err != nil {
		return nil, err
	}
	if create.AssigneeID, err = getIntParam(args, "assignee_id", false); err != nil {
		return nil, err
	}

	wp, err := client.CreateWorkPackage(ctx, create)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Work package created: #%d - **%s**", wp.ID, wp.Subject)), nil
}

func (h *WorkPackageHandler) handleUpdate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "work_package_id", true)
	if err != nil {
		return nil, err
	}

	var patch domain.WorkPackagePatch
	if patch.Subject, err = getOptionalStringParam(args, "subject"); err != nil {
		return nil, err
	}
	if patch.Description, err = getOptionalStringParam(args, "description"); err != nil {
		return nil, err
	}
	if patch.TypeID, err = getOptionalIntParam(args, "type_id"); err != nil {
		return nil, err
	}
	if patch.StatusID, err = getOptionalIntParam(args, "status_id"); err != nil {
		return nil, err
	}
	if patch.PriorityID, err = getOptionalIntParam(args, "priority_id"); err != nil {
		return nil, err
	}
	if patch.AssigneeID, err = getOptionalIntParam(args, "assignee_id"); err != nil {
		return nil, err
	}
	if patch.PercentageDone, err = getOptionalIntParam(args, "percentage_done"); err != nil {
		return nil, err
	}
	if patch.PercentageDone != nil && (*patch.PercentageDone < 0 || *patch.PercentageDone > 100) {
		return nil, invalidParam("percentage_done", "between 0 and 100")
	}
	lockVersion, err := getOptionalIntParam(args, "lock_version")
	if err != nil {
		return nil, err
	}

	wp, err := client.UpdateWorkPackage(ctx, id, patch, lockVersion)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Work package updated: #%d - **%s**", wp.ID, wp.Subject)), nil
}

func (h *WorkPackageHandler) handleDelete(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "work_package_id", true)
	if err != nil {
		return nil, err
	}

	if err := client.DeleteWorkPackage(ctx, id); err != nil {
		return nil, err
	}
	return deleted("Work package", id), nil
}

func (h *WorkPackageHandler) handleSetParent(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "work_package_id", true)
	if err != nil {
		return nil, err
	}
	parentID, err := getIntParam(args, "parent_id", true)
	if err != nil {
		return nil, err
	}

	if _, err := client.SetParent(ctx, id, parentID); err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Work package #%d is now a child of #%d", id, parentID)), nil
}

func (h *WorkPackageHandler) handleRemoveParent(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "work_package_id", true)
	if err != nil {
		return nil, err
	}

	if _, err := client.RemoveParent(ctx, id); err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Work package #%d is now top-level", id)), nil
}

func (h *WorkPackageHandler) handleChildren(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	parentID, err := getIntParam(args, "parent_id", true)
	if err != nil {
		return nil, err
	}
	descendants, err := getBoolParam(args, "include_descendants", false)
	if err != nil {
		return nil, err
	}

	children, err := client.Children(ctx, parentID, descendants)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatChildren(parentID, children)), nil
}
