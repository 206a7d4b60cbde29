package application

import (
	"context"
	"fmt"
	"strconv"

	"openproject-mcp-server/internal/domain"
)

// Tool name constants for time tracking operations
const (
	ToolListTimeEntryActivities = "list_time_entry_activities"
	ToolListTimeEntries         = "list_time_entries"
	ToolCreateTimeEntry         = "create_time_entry"
	ToolUpdateTimeEntry         = "update_time_entry"
	ToolDeleteTimeEntry         = "delete_time_entry"
)

// TimeTrackingHandler serves time entry tools.
type TimeTrackingHandler struct {
	baseHandler
}

// NewTimeTrackingHandler creates a TimeTrackingHandler.
func NewTimeTrackingHandler(clients ClientSource) *TimeTrackingHandler {
	return &TimeTrackingHandler{baseHandler{clients: clients}}
}

// ToolName returns the family name.
func (h *TimeTrackingHandler) ToolName() string {
	return "time_tracking"
}

// ListTools returns the time tracking tools.
func (h *TimeTrackingHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		tool(ToolListTimeEntryActivities, "List all available time entry activities", nil),
		tool(ToolListTimeEntries, "List time entries with optional filtering", map[string]any{
			"work_package_id": domain.IntegerProp("Filter by specific work package (optional)"),
			"user_id":         domain.IntegerProp("Filter by specific user (optional)"),
			"offset":          domain.IntegerProp("Page number to start from (1-based, optional)"),
			"page_size":       domain.IntegerProp("Number of results per page (optional, max: 100)"),
		}),
		tool(ToolCreateTimeEntry, "Create a new time entry", map[string]any{
			"work_package_id": domain.IntegerProp("The work package ID"),
			"hours":           domain.NumberProp("Hours spent (e.g., 2.5)"),
			"spent_on":        domain.StringProp("Date when time was spent (YYYY-MM-DD format)"),
			"comment":         domain.StringProp("Comment/description (optional)"),
			"activity_id":     domain.IntegerProp("Activity ID (optional, e.g., 3 for Development)"),
		}, "work_package_id", "hours", "spent_on"),
		tool(ToolUpdateTimeEntry, "Update an existing time entry", map[string]any{
			"time_entry_id": domain.IntegerProp("The time entry ID"),
			"hours":         domain.NumberProp("Hours spent (optional)"),
			"spent_on":      domain.StringProp("Date when time was spent (optional)"),
			"comment":       domain.StringProp("Comment/description (optional)"),
			"activity_id":   domain.IntegerProp("Activity ID (optional)"),
		}, "time_entry_id"),
		tool(ToolDeleteTimeEntry, "Delete a time entry", map[string]any{
			"time_entry_id": domain.IntegerProp("The time entry ID"),
		}, "time_entry_id"),
	}
}

// Handle executes a time tracking tool call.
func (h *TimeTrackingHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	switch req.Name {
	case ToolListTimeEntryActivities:
		return h.handleListActivities(ctx, req.Arguments)
	case ToolListTimeEntries:
		return h.handleList(ctx, req.Arguments)
	case ToolCreateTimeEntry:
		return h.handleCreate(ctx, req.Arguments)
	case ToolUpdateTimeEntry:
		return h.handleUpdate(ctx, req.Arguments)
	case ToolDeleteTimeEntry:
		return h.handleDelete(ctx, req.Arguments)
	default:
		return nil, unknownTool("time tracking", req.Name)
	}
}

func (h *TimeTrackingHandler) handleListActivities(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	activities, err := client.ListTimeEntryActivities(ctx)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatActivities(activities)), nil
}

func (h *TimeTrackingHandler) handleList(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	workPackageID, err := getIntParam(args, "work_package_id", false)
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

	entries, err := client.ListTimeEntries(ctx, workPackageID, userID, page)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatTimeEntries(entries)), nil
}

func (h *TimeTrackingHandler) handleCreate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	create := domain.TimeEntryCreate{}
	if create.WorkPackageID, err = getIntParam(args, "work_package_id", true); err != nil {
		return nil, err
	}
	if create.Hours, err = getFloatParam(args, "hours", true); err != nil {
		return nil, err
	}
	if create.SpentOn, err = getStringParam(args, "spent_on", true); err != nil {
		return nil, err
	}
	if create.Comment, err = getStringParam(args, "comment", false); err != nil {
		return nil, err
	}
	if create.ActivityID, err = getIntParam(args, "activity_id", false); err != nil {
		return nil, err
	}

	if _, err := client.CreateTimeEntry(ctx, create); err != nil {
		return nil, err
	}
	hours := strconv.FormatFloat(create.Hours, 'f', -1, 64)
	return domain.TextResponse(fmt.Sprintf("✅ Time entry created: %sh on %s", hours, create.SpentOn)), nil
}

func (h *TimeTrackingHandler) handleUpdate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "time_entry_id", true)
	if err != nil {
		return nil, err
	}
	var patch domain.TimeEntryPatch
	if patch.Hours, err = getOptionalFloatParam(args, "hours"); err != nil {
		return nil, err
	}
	if patch.SpentOn, err = getOptionalStringParam(args, "spent_on"); err != nil {
		return nil, err
	}
	if patch.Comment, err = getOptionalStringParam(args, "comment"); err != nil {
		return nil, err
	}
	if patch.ActivityID, err = getOptionalIntParam(args, "activity_id"); err != nil {
		return nil, err
	}

	if _, err := client.UpdateTimeEntry(ctx, id, patch); err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Time entry #%d updated successfully", id)), nil
}

func (h *TimeTrackingHandler) handleDelete(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "time_entry_id", true)
	if err != nil {
		return nil, err
	}

	if err := client.DeleteTimeEntry(ctx, id); err != nil {
		return nil, err
	}
	return deleted("Time entry", id), nil
}
