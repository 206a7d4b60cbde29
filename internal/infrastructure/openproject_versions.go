package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"openproject-mcp-server/internal/domain"
)

// ListVersions lists versions, optionally those of one project.
func (c *OpenProjectClient) ListVersions(ctx context.Context, projectID int) (*domain.Collection[domain.Version], error) {
	path := "/versions"
	if projectID != 0 {
		path = fmt.Sprintf("/%s/%d/versions", projectsPath, projectID)
	}
	return listInto[domain.Version](ctx, c, path, "version", nil, domain.Page{})
}

// CreateVersion creates a version defined by a project.
func (c *OpenProjectClient) CreateVersion(ctx context.Context, create domain.VersionCreate) (*domain.Version, error) {
	if create.ProjectID == 0 || create.Name == "" {
		return nil, domain.NewPreconditionError("project_id and name are required to create a version")
	}
	return sendInto[domain.Version](ctx, c, http.MethodPost, "/versions", "version", create.Body())
}
