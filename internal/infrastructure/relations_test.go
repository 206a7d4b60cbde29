package infrastructure

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openproject-mcp-server/internal/domain"
)

func relationBody(id, from, to int, kind string) map[string]any {
	return map[string]any{
		"id":   id,
		"type": kind,
		"_links": map[string]any{
			"from": map[string]any{"href": "/api/v3/work_packages/" + itoa(from), "title": "From"},
			"to":   map[string]any{"href": "/api/v3/work_packages/" + itoa(to), "title": "To"},
		},
	}
}

func TestCreateRelation(t *testing.T) {
	server := newMockOpenProject(t)
	server.respond(http.MethodPost, "/work_packages/1/relations", http.StatusCreated, relationBody(30, 1, 2, "blocks"))

	rel, err := server.client().CreateRelation(context.Background(), domain.RelationCreate{FromID: 1, ToID: 2, Type: "blocks"})
	require.NoError(t, err)
	assert.Equal(t, 30, rel.ID)
	assert.Equal(t, 1, rel.FromID())
	assert.Equal(t, 2, rel.ToID())

	body := server.recorded()[0].Body
	assert.Equal(t, "blocks", body["type"])
	assert.Equal(t, map[string]any{"href": "/api/v3/work_packages/2"}, body["_links"].(map[string]any)["to"])
}

func TestCreateRelationSelfEdgeSendsNothing(t *testing.T) {
	server := newMockOpenProject(t)

	_, err := server.client().CreateRelation(context.Background(), domain.RelationCreate{FromID: 4, ToID: 4, Type: "relates"})
	var preErr *domain.PreconditionError
	require.ErrorAs(t, err, &preErr)
	assert.Empty(t, server.recorded())
}

func TestCreateRelationUnknownTypePassesThrough(t *testing.T) {
	server := newMockOpenProject(t)
	server.respond(http.MethodPost, "/work_packages/1/relations", http.StatusUnprocessableEntity, map[string]any{
		"errorIdentifier": "urn:openproject-org:api:v3:errors:PropertyConstraintViolation",
		"message":         "Type is not set to one of the allowed values.",
	})

	_, err := server.client().CreateRelation(context.Background(), domain.RelationCreate{FromID: 1, ToID: 2, Type: "causes"})
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "causes", server.recorded()[0].Body["type"])
}

func TestListRelationsFilters(t *testing.T) {
	tests := []struct {
		name  string
		query RelationQuery
		want  string
	}{
		{"none", RelationQuery{}, ""},
		{"involved", RelationQuery{InvolvedID: 7}, `[{"involved":{"operator":"=","values":["7"]}}]`},
		{"both", RelationQuery{InvolvedID: 7, Type: "follows"}, `[{"involved":{"operator":"=","values":["7"]}},{"type":{"operator":"=","values":["follows"]}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newMockOpenProject(t)
			server.respond(http.MethodGet, "/relations", http.StatusOK, collection(1, relationBody(1, 7, 8, "follows")))

			page, err := server.client().ListRelations(context.Background(), tt.query)
			require.NoError(t, err)
			require.Len(t, page.Elements, 1)

			req := server.recorded()[0]
			if tt.want == "" {
				assert.NotContains(t, req.Query, "filters")
				return
			}
			assert.JSONEq(t, tt.want, req.Param("filters"))
		})
	}
}

func TestUpdateAndDeleteRelation(t *testing.T) {
	server := newMockOpenProject(t)
	server.respond(http.MethodPatch, "/relations/3", http.StatusOK, relationBody(3, 1, 2, "precedes"))
	server.handle(http.MethodDelete, "/relations/3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	kind := "precedes"
	lag := 2
	rel, err := server.client().UpdateRelation(context.Background(), 3, domain.RelationPatch{Type: &kind, Lag: &lag})
	require.NoError(t, err)
	assert.Equal(t, "precedes", rel.Type)
	assert.Equal(t, map[string]any{"type": "precedes", "lag": float64(2)}, server.recorded()[0].Body)

	require.NoError(t, server.client().DeleteRelation(context.Background(), 3))
	assert.Error(t, server.client().DeleteRelation(context.Background(), 4))
}
