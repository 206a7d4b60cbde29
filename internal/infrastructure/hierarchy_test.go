package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openproject-mcp-server/internal/domain"
)

// parentFilter extracts the parent id from a work package listing request.
// It runs on server goroutines, so failures are reported without FailNow.
func parentFilter(t *testing.T, r *http.Request) int {
	t.Helper()
	var filters []map[string]struct {
		Operator string   `json:"operator"`
		Values   []string `json:"values"`
	}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("filters")), &filters); err != nil {
		t.Errorf("bad filters %q: %v", r.URL.Query().Get("filters"), err)
		return 0
	}
	for _, f := range filters {
		if _, ok := f["status"]; ok {
			t.Errorf("children listing must not filter by status")
		}
		if p, ok := f["parent"]; ok && len(p.Values) == 1 {
			id, err := strconv.Atoi(p.Values[0])
			if err != nil {
				t.Errorf("parent value %q is not an id", p.Values[0])
			}
			return id
		}
	}
	t.Errorf("no parent filter in %s", r.URL.RawQuery)
	return 0
}

// serveTree answers parent = id listings from tree. Pages follow the
// 1-based offset and pageSize parameters.
func serveTree(t *testing.T, server *mockOpenProject, tree map[int][]int, calls *atomic.Int32) {
	server.handle(http.MethodGet, "/work_packages", func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		ids := tree[parentFilter(t, r)]

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if offset < 1 {
			offset = 1
		}
		if size < 1 {
			size = 20
		}
		start := (offset - 1) * size
		end := min(start+size, len(ids))
		elements := []map[string]any{}
		for i := start; i < end; i++ {
			elements = append(elements, workPackage(ids[i], "WP "+strconv.Itoa(ids[i])))
		}
		writeJSON(w, http.StatusOK, collection(len(ids), elements...))
	})
}

func ids(wps []domain.WorkPackage) []int {
	out := make([]int, 0, len(wps))
	for _, wp := range wps {
		out = append(out, wp.ID)
	}
	return out
}

func TestChildrenDirect(t *testing.T) {
	server := newMockOpenProject(t)
	serveTree(t, server, map[int][]int{1: {2, 3}, 2: {4}}, nil)

	children, err := server.client().Children(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids(children))
	assert.Len(t, server.recorded(), 1)
}

func TestChildrenDescendants(t *testing.T) {
	server := newMockOpenProject(t)
	serveTree(t, server, map[int][]int{
		1: {2, 3},
		2: {4, 5},
		3: {6},
		5: {7},
	}, nil)

	children, err := server.client().Children(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, ids(children), "level order with direct children first")
}

func TestChildrenCycle(t *testing.T) {
	server := newMockOpenProject(t)
	serveTree(t, server, map[int][]int{
		1: {2},
		2: {3, 1},
		3: {2},
	}, nil)

	children, err := server.client().Children(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids(children), "terminates and never includes the root")
}

func TestChildrenSharedDescendant(t *testing.T) {
	server := newMockOpenProject(t)
	serveTree(t, server, map[int][]int{
		1: {2, 3},
		2: {4},
		3: {4},
	}, nil)

	children, err := server.client().Children(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, ids(children))
}

func TestChildrenEmpty(t *testing.T) {
	server := newMockOpenProject(t)
	serveTree(t, server, map[int][]int{}, nil)

	for _, deep := range []bool{false, true} {
		children, err := server.client().Children(context.Background(), 8, deep)
		require.NoError(t, err)
		assert.NotNil(t, children)
		assert.Empty(t, children)
	}
}

func TestChildrenPagesThroughLargeLevels(t *testing.T) {
	server := newMockOpenProject(t)
	many := make([]int, 0, 250)
	for i := 0; i < 250; i++ {
		many = append(many, 1000+i)
	}
	var calls atomic.Int32
	serveTree(t, server, map[int][]int{1: many}, &calls)

	children, err := server.client().Children(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Len(t, children, 250)
	assert.Equal(t, int32(3), calls.Load())

	for i, req := range server.recorded() {
		assert.Equal(t, strconv.Itoa(i+1), req.Param("offset"))
		assert.Equal(t, "100", req.Param("pageSize"))
	}
}

func TestChildrenFailureFailsWholeCall(t *testing.T) {
	server := newMockOpenProject(t)
	server.handle(http.MethodGet, "/work_packages", func(w http.ResponseWriter, r *http.Request) {
		if parentFilter(t, r) == 3 {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "You are not authorized to access this resource."})
			return
		}
		children := map[int][]int{1: {2, 3}}[parentFilter(t, r)]
		elements := []map[string]any{}
		for _, id := range children {
			elements = append(elements, workPackage(id, "child"))
		}
		writeJSON(w, http.StatusOK, collection(len(elements), elements...))
	})

	children, err := server.client().Children(context.Background(), 1, true)
	assert.Nil(t, children)
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "work package 3")
}

func TestSetParent(t *testing.T) {
	server := newMockOpenProject(t)
	server.respond(http.MethodGet, "/work_packages/5", http.StatusOK, workPackage(5, "Child"))
	server.respond(http.MethodPatch, "/work_packages/5", http.StatusOK, workPackage(5, "Child"))

	_, err := server.client().SetParent(context.Background(), 5, 4)
	require.NoError(t, err)

	patch := server.recorded()[1]
	assert.Equal(t, float64(1), patch.Body["lockVersion"])
	assert.Equal(t, map[string]any{"parent": map[string]any{"href": "/api/v3/work_packages/4"}}, patch.Body["_links"])
}

func TestSetParentPreconditions(t *testing.T) {
	server := newMockOpenProject(t)
	var preErr *domain.PreconditionError

	_, err := server.client().SetParent(context.Background(), 5, 5)
	assert.ErrorAs(t, err, &preErr)
	_, err = server.client().SetParent(context.Background(), 5, 0)
	assert.ErrorAs(t, err, &preErr)
	assert.Empty(t, server.recorded())
}

func TestRemoveParent(t *testing.T) {
	server := newMockOpenProject(t)
	server.respond(http.MethodGet, "/work_packages/5", http.StatusOK, workPackage(5, "Child"))
	server.respond(http.MethodPatch, "/work_packages/5", http.StatusOK, workPackage(5, "Child"))

	_, err := server.client().RemoveParent(context.Background(), 5)
	require.NoError(t, err)

	patch := server.recorded()[1]
	assert.Equal(t, map[string]any{"parent": map[string]any{"href": nil}}, patch.Body["_links"])
}
