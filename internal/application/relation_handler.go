package application

import (
	"context"
	"fmt"

	"openproject-mcp-server/internal/domain"
	"openproject-mcp-server/internal/infrastructure"
)

// Tool name constants for relation operations
const (
	ToolCreateRelation = "create_work_package_relation"
	ToolListRelations  = "list_work_package_relations"
	ToolGetRelation    = "get_work_package_relation"
	ToolUpdateRelation = "update_work_package_relation"
	ToolDeleteRelation = "delete_work_package_relation"
)

// RelationHandler serves work package relation tools.
type RelationHandler struct {
	baseHandler
}

// NewRelationHandler creates a RelationHandler.
func NewRelationHandler(clients ClientSource) *RelationHandler {
	return &RelationHandler{baseHandler{clients: clients}}
}

// ToolName returns the family name.
func (h *RelationHandler) ToolName() string {
	return "relations"
}

// ListTools returns the relation tools.
func (h *RelationHandler) ListTools() []domain.ToolDefinition {
	relationType := domain.EnumProp("Relation type", domain.RelationTypes...)
	relationID := map[string]any{"relation_id": domain.IntegerProp("The relation ID")}

	return []domain.ToolDefinition{
		tool(ToolCreateRelation, "Create a relationship between work packages", map[string]any{
			"from_id":       domain.IntegerProp("Source work package ID"),
			"to_id":         domain.IntegerProp("Target work package ID"),
			"relation_type": relationType,
			"lag":           domain.IntegerProp("Lag in working days (optional, for follows/precedes)"),
			"description":   domain.StringProp("Optional description of the relation"),
		}, "from_id", "to_id", "relation_type"),
		tool(ToolListRelations, "List work package relations with optional filtering", map[string]any{
			"work_package_id": domain.IntegerProp("Filter relations involving this work package ID (optional)"),
			"relation_type":   domain.StringProp("Filter by relation type (optional)"),
			"offset":          domain.IntegerProp("Page number to start from (1-based, optional)"),
			"page_size":       domain.IntegerProp("Number of results per page (optional, max: 100)"),
		}),
		tool(ToolGetRelation, "Get detailed information about a specific work package relation", relationID, "relation_id"),
		tool(ToolUpdateRelation, "Update an existing work package relation", map[string]any{
			"relation_id":   domain.IntegerProp("The relation ID"),
			"relation_type": relationType,
			"lag":           domain.IntegerProp("Lag in working days (optional)"),
			"description":   domain.StringProp("Description (optional)"),
		}, "relation_id"),
		tool(ToolDeleteRelation, "Delete a work package relation", relationID, "relation_id"),
	}
}

// Handle executes a relation tool call.
func (h *RelationHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	switch req.Name {
	case ToolCreateRelation:
		return h.handleCreate(ctx, req.Arguments)
	case ToolListRelations:
		return h.handleList(ctx, req.Arguments)
	case ToolGetRelation:
		return h.handleGet(ctx, req.Arguments)
	case ToolUpdateRelation:
		return h.handleUpdate(ctx, req.Arguments)
	case ToolDeleteRelation:
		return h.handleDelete(ctx, req.Arguments)
	default:
		return nil, unknownTool("relation", req.Name)
	}
}

func (h *RelationHandler) handleCreate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	create := domain.RelationCreate{}
	if create.FromID, err = getIntParam(args, "from_id", true); err != nil {
		return nil, err
	}
	if create.ToID, err = getIntParam(args, "to_id", true); err != nil {
		return nil, err
	}
	if create.Type, err = getStringParam(args, "relation_type", true); err != nil {
		return nil, err
	}
	if create.Lag, err = getOptionalIntParam(args, "lag"); err != nil {
		return nil, err
	}
	if create.Description, err = getStringParam(args, "description", false); err != nil {
		return nil, err
	}

	relation, err := client.CreateRelation(ctx, create)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Relation created: #%d %s #%d (ID: %d)",
		create.FromID, create.Type, create.ToID, relation.ID)), nil
}

func (h *RelationHandler) handleList(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	query := infrastructure.RelationQuery{}
	if query.InvolvedID, err = getIntParam(args, "work_package_id", false); err != nil {
		return nil, err
	}
	if query.Type, err = getStringParam(args, "relation_type", false); err != nil {
		return nil, err
	}
	if query.Page, err = getPageParams(args); err != nil {
		return nil, err
	}

	relations, err := client.ListRelations(ctx, query)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatRelations(relations)), nil
}

func (h *RelationHandler) handleGet(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "relation_id", true)
	if err != nil {
		return nil, err
	}

	relation, err := client.GetRelation(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.TextResponse(formatRelation(relation)), nil
}

func (h *RelationHandler) handleUpdate(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "relation_id", true)
	if err != nil {
		return nil, err
	}
	var patch domain.RelationPatch
	if patch.Type, err = getOptionalStringParam(args, "relation_type"); err != nil {
		return nil, err
	}
	if patch.Lag, err = getOptionalIntParam(args, "lag"); err != nil {
		return nil, err
	}
	if patch.Description, err = getOptionalStringParam(args, "description"); err != nil {
		return nil, err
	}

	if _, err := client.UpdateRelation(ctx, id, patch); err != nil {
		return nil, err
	}
	return domain.TextResponse(fmt.Sprintf("✅ Relation #%d updated successfully", id)), nil
}

func (h *RelationHandler) handleDelete(ctx context.Context, args map[string]any) (*domain.ToolResponse, error) {
	client, err := h.getClientForRequest(ctx, args)
	if err != nil {
		return nil, err
	}

	id, err := getIntParam(args, "relation_id", true)
	if err != nil {
		return nil, err
	}

	if err := client.DeleteRelation(ctx, id); err != nil {
		return nil, err
	}
	return deleted("Relation", id), nil
}
