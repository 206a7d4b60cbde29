package infrastructure

import (
	"context"
	"fmt"

	"openproject-mcp-server/internal/domain"
)

// ListTypes lists work package types, optionally those enabled in a project.
func (c *OpenProjectClient) ListTypes(ctx context.Context, projectID int) (*domain.Collection[domain.Type], error) {
	path := "/types"
	if projectID != 0 {
		path = fmt.Sprintf("/%s/%d/types", projectsPath, projectID)
	}
	return listInto[domain.Type](ctx, c, path, "type", nil, domain.Page{})
}

// ListUsers lists users. activeOnly adds a status = active predicate.
func (c *OpenProjectClient) ListUsers(ctx context.Context, activeOnly bool, page domain.Page) (*domain.Collection[domain.User], error) {
	filter := domain.NewFilter().EqualsIf(activeOnly, "status", "active")
	return listInto[domain.User](ctx, c, "/users", "user", filter, page)
}

// GetUser retrieves a user by id.
func (c *OpenProjectClient) GetUser(ctx context.Context, id int) (*domain.User, error) {
	return getInto[domain.User](ctx, c, idPath("users", id), "user")
}

// CurrentUser returns the user the credentials belong to.
func (c *OpenProjectClient) CurrentUser(ctx context.Context) (*domain.User, error) {
	return getInto[domain.User](ctx, c, "/users/me", "user")
}

// ListStatuses lists all work package statuses.
func (c *OpenProjectClient) ListStatuses(ctx context.Context) (*domain.Collection[domain.Status], error) {
	return listInto[domain.Status](ctx, c, "/statuses", "status", nil, domain.Page{})
}

// ListPriorities lists all work package priorities.
func (c *OpenProjectClient) ListPriorities(ctx context.Context) (*domain.Collection[domain.Priority], error) {
	return listInto[domain.Priority](ctx, c, "/priorities", "priority", nil, domain.Page{})
}

// ListRoles lists all roles.
func (c *OpenProjectClient) ListRoles(ctx context.Context) (*domain.Collection[domain.Role], error) {
	return listInto[domain.Role](ctx, c, "/roles", "role", nil, domain.Page{})
}

// GetRole retrieves a role by id.
func (c *OpenProjectClient) GetRole(ctx context.Context, id int) (*domain.Role, error) {
	return getInto[domain.Role](ctx, c, idPath("roles", id), "role")
}
