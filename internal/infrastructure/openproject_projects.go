package infrastructure

import (
	"context"
	"net/http"

	"openproject-mcp-server/internal/domain"
)

const projectsPath = "projects"

// ListProjects lists projects. activeOnly adds an active = t predicate.
func (c *OpenProjectClient) ListProjects(ctx context.Context, activeOnly bool, page domain.Page) (*domain.Collection[domain.Project], error) {
	filter := domain.NewFilter().EqualsIf(activeOnly, "active", true)
	return listInto[domain.Project](ctx, c, "/"+projectsPath, "project", filter, page)
}

// GetProject retrieves a project by id.
func (c *OpenProjectClient) GetProject(ctx context.Context, id int) (*domain.Project, error) {
	return getInto[domain.Project](ctx, c, idPath(projectsPath, id), "project")
}

// CreateProject creates a project.
func (c *OpenProjectClient) CreateProject(ctx context.Context, create domain.ProjectCreate) (*domain.Project, error) {
	if create.Name == "" || create.Identifier == "" {
		return nil, domain.NewPreconditionError("name and identifier are required")
	}
	return sendInto[domain.Project](ctx, c, http.MethodPost, "/"+projectsPath, "project", create.Body())
}

// UpdateProject applies a partial update.
func (c *OpenProjectClient) UpdateProject(ctx context.Context, id int, patch domain.ProjectPatch) (*domain.Project, error) {
	return sendInto[domain.Project](ctx, c, http.MethodPatch, idPath(projectsPath, id), "project", patch.Body())
}

// DeleteProject deletes a project.
func (c *OpenProjectClient) DeleteProject(ctx context.Context, id int) error {
	return c.remove(ctx, idPath(projectsPath, id))
}
