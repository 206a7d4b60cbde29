package application

import (
	"context"
	"fmt"

	"openproject-mcp-server/internal/domain"
	"openproject-mcp-server/internal/infrastructure"
)

// ClientSource hands out OpenProject clients. nil credentials select the
// server's configured key.
type ClientSource interface {
	ClientWithCredentials(ctx context.Context, creds *domain.Credentials) (*infrastructure.OpenProjectClient, error)
}

// baseHandler carries what every tool family needs.
type baseHandler struct {
	clients ClientSource
}

// getClientForRequest returns a client using the credentials in the
// optional auth argument, or the configured ones.
func (b baseHandler) getClientForRequest(ctx context.Context, args map[string]any) (*infrastructure.OpenProjectClient, error) {
	creds, err := domain.ExtractCredentialsFromArguments(args)
	if err != nil {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: err.Error(),
		}
	}
	return b.clients.ClientWithCredentials(ctx, creds)
}

func unknownTool(family, name string) error {
	return &domain.Error{
		Code:    domain.MethodNotFound,
		Message: fmt.Sprintf("unknown %s tool: %s", family, name),
	}
}

// getAuthSchema returns the schema for the optional auth argument accepted
// by every tool.
func getAuthSchema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "Optional credentials (if not provided, uses server config)",
		"properties": map[string]any{
			"type":    domain.EnumProp("Authentication type", "token", "basic"),
			"api_key": domain.StringProp("OpenProject API key"),
		},
	}
}

// tool builds a definition whose schema also accepts auth.
func tool(name, description string, properties map[string]any, required ...string) domain.ToolDefinition {
	props := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		props[k] = v
	}
	props["auth"] = getAuthSchema()
	return domain.ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: domain.Schema(props, required...),
	}
}

func deleted(kind string, id int) *domain.ToolResponse {
	return domain.TextResponse(fmt.Sprintf("✅ %s #%d deleted successfully", kind, id))
}
