package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// handlerTransport serves requests in-process from handler.
type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// graphClient answers parent listings from an adjacency list, which may
// contain cycles and shared children.
func graphClient(edges map[int][]int) *OpenProjectClient {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var filters []map[string]struct {
			Values []string `json:"values"`
		}
		_ = json.Unmarshal([]byte(r.URL.Query().Get("filters")), &filters)
		parent := 0
		for _, f := range filters {
			if p, ok := f["parent"]; ok && len(p.Values) == 1 {
				parent, _ = strconv.Atoi(p.Values[0])
			}
		}
		elements := []map[string]any{}
		for _, id := range edges[parent] {
			elements = append(elements, workPackage(id, "node"))
		}
		writeJSON(w, http.StatusOK, collection(len(elements), elements...))
	})
	return NewOpenProjectClient("http://openproject.test", &http.Client{Transport: handlerTransport{handler: handler}})
}

// reachable computes the ids reachable from root, excluding root.
func reachable(edges map[int][]int, root int) map[int]bool {
	seen := map[int]bool{root: true}
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range edges[id] {
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}
	delete(seen, root)
	return seen
}

func TestChildrenProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// each edge is encoded as from*10+to over nodes 1..9
	edgeGen := gen.SliceOf(gen.IntRange(11, 99))

	toGraph := func(encoded []int) map[int][]int {
		edges := map[int][]int{}
		for _, e := range encoded {
			from, to := e/10, e%10
			if to == 0 {
				continue
			}
			edges[from] = append(edges[from], to)
		}
		return edges
	}

	properties.Property("descendants are the reachable set, each once, never the root", prop.ForAll(
		func(encoded []int) bool {
			edges := toGraph(encoded)
			got, err := graphClient(edges).Children(context.Background(), 1, true)
			if err != nil {
				return false
			}
			want := reachable(edges, 1)
			if len(got) != len(want) {
				return false
			}
			seen := map[int]bool{}
			for _, wp := range got {
				if wp.ID == 1 || seen[wp.ID] || !want[wp.ID] {
					return false
				}
				seen[wp.ID] = true
			}
			return true
		},
		edgeGen,
	))

	properties.Property("direct children come first", prop.ForAll(
		func(encoded []int) bool {
			edges := toGraph(encoded)
			client := graphClient(edges)
			direct, err := client.Children(context.Background(), 1, false)
			if err != nil {
				return false
			}
			all, err := client.Children(context.Background(), 1, true)
			if err != nil {
				return false
			}

			// direct children minus duplicates and the root, in order
			var firstLevel []int
			seen := map[int]bool{1: true}
			for _, wp := range direct {
				if !seen[wp.ID] {
					seen[wp.ID] = true
					firstLevel = append(firstLevel, wp.ID)
				}
			}
			if len(all) < len(firstLevel) {
				return false
			}
			for i, id := range firstLevel {
				if all[i].ID != id {
					return false
				}
			}
			return true
		},
		edgeGen,
	))

	properties.TestingRun(t)
}
