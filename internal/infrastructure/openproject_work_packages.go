package infrastructure

import (
	"context"
	"fmt"
	"maps"
	"net/http"

	"openproject-mcp-server/internal/domain"
)

const workPackagesPath = "work_packages"

// WorkPackageQuery selects a window of work packages.
type WorkPackageQuery struct {
	// ProjectID scopes the listing to one project via the nested path.
	ProjectID int
	// ParentID restricts the listing to direct children of a work package.
	ParentID int
	// Status filters by status class. The zero value means open.
	Status domain.StatusClass
	Page   domain.Page
}

// Filter builds the filter expression for the query.
func (q WorkPackageQuery) Filter() *domain.Filter {
	class := q.Status
	if class == "" {
		class = domain.StatusOpen
	}
	return domain.NewFilter().
		Status(class).
		EqualsIf(q.ParentID != 0, "parent", q.ParentID)
}

func (q WorkPackageQuery) path() string {
	if q.ProjectID != 0 {
		return fmt.Sprintf("/%s/%d/%s", projectsPath, q.ProjectID, workPackagesPath)
	}
	return "/" + workPackagesPath
}

// ListWorkPackages lists one window of work packages.
func (c *OpenProjectClient) ListWorkPackages(ctx context.Context, query WorkPackageQuery) (*domain.Collection[domain.WorkPackage], error) {
	return listInto[domain.WorkPackage](ctx, c, query.path(), "work package", query.Filter(), query.Page)
}

// GetWorkPackage retrieves a work package by id.
func (c *OpenProjectClient) GetWorkPackage(ctx context.Context, id int) (*domain.WorkPackage, error) {
	return getInto[domain.WorkPackage](ctx, c, idPath(workPackagesPath, id), "work package")
}

// CreateWorkPackage creates a work package. Project and type are linked.
func (c *OpenProjectClient) CreateWorkPackage(ctx context.Context, create domain.WorkPackageCreate) (*domain.WorkPackage, error) {
	if create.Project == 0 || create.Type == 0 || create.Subject == "" {
		return nil, domain.NewPreconditionError("project, type and subject are required to create a work package")
	}
	return sendInto[domain.WorkPackage](ctx, c, http.MethodPost, "/"+workPackagesPath, "work package", create.Body())
}

// UpdateWorkPackage applies a partial update. OpenProject rejects a PATCH
// without the current lockVersion, so when lockVersion is nil it is read
// from the work package first. An empty patch is still sent.
func (c *OpenProjectClient) UpdateWorkPackage(ctx context.Context, id int, patch domain.WorkPackagePatch, lockVersion *int) (*domain.WorkPackage, error) {
	return c.patchWorkPackage(ctx, id, patch.Body(), lockVersion)
}

// DeleteWorkPackage deletes a work package.
func (c *OpenProjectClient) DeleteWorkPackage(ctx context.Context, id int) error {
	return c.remove(ctx, idPath(workPackagesPath, id))
}

func (c *OpenProjectClient) patchWorkPackage(ctx context.Context, id int, changes map[string]any, lockVersion *int) (*domain.WorkPackage, error) {
	version, err := c.lockVersion(ctx, id, lockVersion)
	if err != nil {
		return nil, err
	}

	body := maps.Clone(changes)
	if body == nil {
		body = map[string]any{}
	}
	body["lockVersion"] = version

	return sendInto[domain.WorkPackage](ctx, c, http.MethodPatch, idPath(workPackagesPath, id), "work package", body)
}

func (c *OpenProjectClient) lockVersion(ctx context.Context, id int, supplied *int) (int, error) {
	if supplied != nil {
		return *supplied, nil
	}
	current, err := c.GetWorkPackage(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to read lock version of work package %d: %w", id, err)
	}
	return current.LockVersion, nil
}
