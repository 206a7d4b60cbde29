package infrastructure

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordedRequest is one request seen by the mock server.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   map[string]any
}

// Filters returns the decoded filters parameter, or nil when absent.
func (r recordedRequest) Filters(t *testing.T) []map[string]any {
	t.Helper()
	raw, ok := r.Query["filters"]
	if !ok {
		return nil
	}
	var filters []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &filters))
	return filters
}

// Param returns the first value of a query parameter.
func (r recordedRequest) Param(name string) string {
	if vs := r.Query[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// mockOpenProject is an httptest server that records requests and answers
// from a route table keyed by "METHOD /path".
type mockOpenProject struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]http.HandlerFunc
}

func newMockOpenProject(t *testing.T) *mockOpenProject {
	t.Helper()
	m := &mockOpenProject{routes: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

func (m *mockOpenProject) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}

	m.mu.Lock()
	m.requests = append(m.requests, rec)
	handler, ok := m.routes[r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api/v3")]
	m.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"_type":           "Error",
			"errorIdentifier": "urn:openproject-org:api:v3:errors:NotFound",
			"message":         "The requested resource could not be found.",
		})
		return
	}
	handler(w, r)
}

// handle registers a handler for method and API-relative path.
func (m *mockOpenProject) handle(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[method+" "+path] = handler
}

// respond registers a fixed JSON response.
func (m *mockOpenProject) respond(method, path string, status int, body any) {
	m.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (m *mockOpenProject) recorded() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// client returns an unthrottled client authenticated with a test key.
func (m *mockOpenProject) client() *OpenProjectClient {
	httpClient := &http.Client{Transport: &staticAuthTransport{base: http.DefaultTransport}}
	return NewOpenProjectClient(m.URL, httpClient)
}

type staticAuthTransport struct {
	base http.RoundTripper
}

func (t *staticAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer test-key")
	return t.base.RoundTrip(clone)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// collection builds a HAL collection body.
func collection(total int, elements ...map[string]any) map[string]any {
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

// workPackage builds a work package body.
func workPackage(id int, subject string) map[string]any {
	return map[string]any{
		"id":          id,
		"subject":     subject,
		"lockVersion": 1,
		"_links": map[string]any{
			"self":   map[string]any{"href": fmt.Sprintf("/api/v3/work_packages/%d", id)},
			"status": map[string]any{"href": "/api/v3/statuses/1", "title": "New"},
		},
	}
}
