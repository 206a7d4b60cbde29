package application

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"openproject-mcp-server/internal/domain"
	"openproject-mcp-server/internal/infrastructure"
)

type apiCall struct {
	Method string
	Path   string
	Query  map[string]string
	Auth   string
	Body   map[string]any
}

// fakeOpenProject answers canned responses keyed by "METHOD /path", with the
// /api/v3 prefix stripped. Unknown routes get a 404 error document.
type fakeOpenProject struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]func(w http.ResponseWriter, r *http.Request)
	calls  []apiCall
}

func newFakeOpenProject(t *testing.T) *fakeOpenProject {
	t.Helper()
	f := &fakeOpenProject{routes: map[string]func(http.ResponseWriter, *http.Request){}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOpenProject) serve(w http.ResponseWriter, r *http.Request) {
	call := apiCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  map[string]string{},
		Auth:   r.Header.Get("Authorization"),
	}
	for k := range r.URL.Query() {
		call.Query[k] = r.URL.Query().Get(k)
	}
	if body, _ := io.ReadAll(r.Body); len(body) > 0 {
		_ = json.Unmarshal(body, &call.Body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	route := f.routes[r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api/v3")]
	f.mu.Unlock()

	if route == nil {
		reply(w, http.StatusNotFound, map[string]any{
			"_type":   "Error",
			"message": "The requested resource could not be found.",
		})
		return
	}
	route(w, r)
}

func (f *fakeOpenProject) on(method, path string, status int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = func(w http.ResponseWriter, _ *http.Request) {
		reply(w, status, body)
	}
}

func (f *fakeOpenProject) requests() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

// source returns a connector configured against the fake.
func (f *fakeOpenProject) source() ClientSource {
	return infrastructure.NewConnector(domain.OpenProjectConfig{BaseURL: f.URL, APIKey: "server-key"}, nil, nil)
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func halCollection(total int, elements ...map[string]any) map[string]any {
	if elements == nil {
		elements = []map[string]any{}
	}
	return map[string]any{
		"_type":     "Collection",
		"total":     total,
		"count":     len(elements),
		"_embedded": map[string]any{"elements": elements},
	}
}

func halWorkPackage(id int, subject string) map[string]any {
	return map[string]any{
		"_type":       "WorkPackage",
		"id":          id,
		"subject":     subject,
		"lockVersion": 3,
		"_links": map[string]any{
			"status":   map[string]any{"href": "/api/v3/statuses/1", "title": "New"},
			"type":     map[string]any{"href": "/api/v3/types/1", "title": "Task"},
			"assignee": map[string]any{"href": "/api/v3/users/5", "title": "Ada"},
		},
	}
}

// call runs a single tool through handler.
func call(t *testing.T, handler domain.ToolHandler, name string, args map[string]any) (*domain.ToolResponse, error) {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	return handler.Handle(t.Context(), &domain.ToolRequest{Name: name, Arguments: args})
}

func text(resp *domain.ToolResponse) string {
	if resp == nil || len(resp.Content) == 0 {
		return ""
	}
	return resp.Content[0].Text
}
