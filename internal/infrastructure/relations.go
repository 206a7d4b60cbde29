package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"openproject-mcp-server/internal/domain"
)

const relationsPath = "relations"

// RelationQuery selects relations. Both filters are optional and combine.
type RelationQuery struct {
	// InvolvedID matches relations with this work package on either end.
	InvolvedID int
	Type       string
	Page       domain.Page
}

// Filter builds the filter expression for the query.
func (q RelationQuery) Filter() *domain.Filter {
	return domain.NewFilter().
		EqualsIf(q.InvolvedID != 0, "involved", q.InvolvedID).
		EqualsIf(q.Type != "", "type", q.Type)
}

// CreateRelation creates a relation from create.FromID to create.ToID.
// Missing ids and self-edges are rejected without a request.
func (c *OpenProjectClient) CreateRelation(ctx context.Context, create domain.RelationCreate) (*domain.Relation, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/%s/%d/%s", workPackagesPath, create.FromID, relationsPath)
	return sendInto[domain.Relation](ctx, c, http.MethodPost, path, "relation", create.Body())
}

// ListRelations lists one window of relations.
func (c *OpenProjectClient) ListRelations(ctx context.Context, query RelationQuery) (*domain.Collection[domain.Relation], error) {
	return listInto[domain.Relation](ctx, c, "/"+relationsPath, "relation", query.Filter(), query.Page)
}

// GetRelation retrieves a relation by id.
func (c *OpenProjectClient) GetRelation(ctx context.Context, id int) (*domain.Relation, error) {
	return getInto[domain.Relation](ctx, c, idPath(relationsPath, id), "relation")
}

// UpdateRelation applies a partial update.
func (c *OpenProjectClient) UpdateRelation(ctx context.Context, id int, patch domain.RelationPatch) (*domain.Relation, error) {
	return sendInto[domain.Relation](ctx, c, http.MethodPatch, idPath(relationsPath, id), "relation", patch.Body())
}

// DeleteRelation deletes a relation.
func (c *OpenProjectClient) DeleteRelation(ctx context.Context, id int) error {
	return c.remove(ctx, idPath(relationsPath, id))
}
