package application

import (
	"context"
	"fmt"

	"openproject-mcp-server/internal/domain"
)

// Tool name constants for project operations
const (
	ToolListProjects  = "list_projects"
	ToolGetProject    = "get_project"
	ToolCreateProject = "create_project"
	ToolUpdateProject = "update_project"
	ToolDeleteProject = "delete_project"
	ToolListVersions  = "list_versions"
	ToolCreateVersion = "create_version"
)

// ProjectHandler serves project and version tools.
type ProjectHandler struct {
	baseHandler
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(clients ClientSource) *ProjectHandler {
	return &ProjectHandler{baseHandler{clients: clients}}
}

// ToolName returns the family name.
func (h *ProjectHandler) ToolName() string {
	return "projects"
}

// ListTools returns the project tools.
func (h *ProjectHandler) ListTools() []domain.ToolDefinition {
	projectFields := map[string]any{
		"name":        domain.StringProp("Project name"),
		"identifier":  domain.StringProp("Project identifier (unique, lowercase, no spaces)"),
		"description": domain.StringProp("Project description (optional)"),
		"public":      domain.BooleanProp("Whether the project is public"),
		"status":      domain.StringProp("Project status code, e.g. on_track (optional)"),
		"parent_id":   domain.IntegerProp("Parent project ID (optional)"),
	}
	updateFields := map[string]any{"project_id": domain.IntegerProp("The project ID")}
	for k, v := range projectFields {
		updateFields[k] = v
	}

	return []domain.ToolDefinition{
		tool(ToolListProjects, "List all OpenProject projects", map[string]any{
			"active_only": domain.BooleanProp("Show only active projects (default: true)"),
			"offset":      domain.IntegerProp("Page number to start from (1-based, optional)"),
			"page_size":   domain.IntegerProp("Number of results per page (optional, max: 100)"),
		}),
		tool(ToolGetProject, "Get detailed information about a specific project", map[string]any{
			"project_id": domain.IntegerProp("The project ID"),
		}, "project_id"),
		tool(ToolCreateProject, "Create a new project", projectFields, "name", "identifier"),
		tool(ToolUpdateProject, "Update an existing project", updateFields, "project_id"),
		tool(ToolDeleteProject, "Delete a project", map[string]any{
			"project_id": domain.IntegerProp("The project ID"),
		}, "project_id"),
		tool(ToolListVersions, "List project versions/milestones", map[string]any{
			"project_id": domain.IntegerProp("Filter by specific project (optional)"),
		}),
		tool(ToolCreateVersion, "Create a new project version/milestone", map[string]any{
			"project_id":  domain.IntegerProp("The project ID"),
			"name":        domain.StringProp("Version name"),
			"description": domain.StringProp("Version description (optional)"),
			"start_date":  domain.StringProp("Start date (YYYY-MM-DD format, optional)"),
			"end_date":    domain.StringProp("End date (YYYY-MM-DD format, optional)"),
			"status":      domain.EnumProp("Version status (optional)", "open", "locked", "closed"),
		}, "project_id", "name"),
	}
}

// Handle executes a project tool call.
func (h *ProjectHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	switch req.Name {
	case ToolListProjects:
		return h.handleListProjects(ctx, req.Arguments)
	case ToolGetProject:
		return h.handleGetProject(ctx, req.Arguments)
	case ToolCreateProject:
		return h.handleCreateProject(ctx, req.Arguments)
	case ToolUpdateProject:
		return h.handleUpdateProject(ctx, req.Arguments)
	case ToolDeleteProject:
		return h.handleDeleteProject(ctx, req.Arguments)
	case ToolListVersions:
		return h.handleListVersions(ctx, req.Arguments)
	case ToolCreateVersion:
		return h.handleCreateVersion(ctx, req.Arguments)
	default:
		return nil, unknownTool("project", req.Name)
	}
}

func (h *ProjectHandler) handleListProjects(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	activeOnly, err := getBoolParam(args, "active_only", true)
	if err != nil {
		return nil, err
	}
	page, err := getPageParams(args)
	if err != nil {
		return nil, err
	}

	projects, err := client.ListProjects(ctx, activeOnly, page)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatProjects(projects)), nil
}

func (h *ProjectHandler) handleGetProject(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "project_id", true)
	if err != nil {
		return nil, err
	}

	project, err := client.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatProject(project)), nil
}

func (h *ProjectHandler) handleCreateProject(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	name, err := getStringParam(args, "name", true)
	if err != nil {
		return nil, err
	}
	identifier, err := getStringParam(args, "identifier", true)
	if err != nil {
		return nil, err
	}
	description, err := getStringParam(args, "description", false)
	if err != nil {
		return nil, err
	}
	public, err := getBoolParam(args, "public", false)
	if err != nil {
		return nil, err
	}
	status, err := getStringParam(args, "status", false)
	if err != nil {
		return nil, err
	}
	parentID, err := getIntParam(args, "parent_id", false)
	if err != nil {
		return nil, err
	}

	project, err := client.CreateProject(ctx, domain.ProjectCreate{
		Name:        name,
		Identifier:  identifier,
		Description: description,
		Public:      public,
		Status:      status,
		ParentID:    parentID,
	})
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Project created: **%s** (ID: %d)", project.Name, project.ID)), nil
}

func (h *ProjectHandler) handleUpdateProject(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "project_id", true)
	if err != nil {
		return nil, err
	}

	var patch domain.ProjectPatch
	if patch.Name, err = getOptionalStringParam(args, "name"); err != nil {
		return nil, err
	}
	if patch.Identifier, err = getOptionalStringParam(args, "identifier"); err != nil {
		return nil, err
	}
	if patch.Description, err = getOptionalStringParam(args, "description"); err != nil {
		return nil, err
	}
	if patch.Public, err = getOptionalBoolParam(args, "public"); err != nil {
		return nil, err
	}
	if patch.Status, err = getOptionalStringParam(args, "status"); err != nil {
		return nil, err
	}
	if patch.ParentID, err = getOptionalIntParam(args, "parent_id"); err != nil {
		return nil, err
	}

	project, err := client.UpdateProject(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Project updated: **%s** (ID: %d)", project.Name, project.ID)), nil
}

func (h *ProjectHandler) handleDeleteProject(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "project_id", true)
	if err != nil {
		return nil, err
	}

	if err := client.DeleteProject(ctx, id); err != nil {
		return nil, err
	}
	return deleted("Project", id), nil
}

func (h *ProjectHandler) handleListVersions(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	projectID, err := getIntParam(args, "project_id", false)
	if err != nil {
		return nil, err
	}

	versions, err := client.ListVersions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatVersions(versions)), nil
}

func (h *ProjectHandler) handleCreateVersion(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	create := domain.VersionCreate{}
	if create.ProjectID, err = getIntParam(args, "project_id", true); err != nil {
		return nil, err
	}
	if create.Name, err = getStringParam(args, "name", true); err != nil {
		return nil, err
	}
	if create.Description, err = getStringParam(args, "description", false); err != nil {
		return nil, err
	}
	if create.StartDate, err = getStringParam(args, "start_date", false); err != nil {
		return nil, err
	}
	if create.EndDate, err = getStringParam(args, "end_date", false); err != nil {
		return nil, err
	}
	if create.Status, err = getStringParam(args, "status", false); err != nil {
		return nil, err
	}

	version, err := client.CreateVersion(ctx, create)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Version created: **%s** (ID: %d)", version.Name, version.ID)), nil
}
