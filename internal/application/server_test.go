package application

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openproject-mcp-server/internal/domain"
)

// mockTransport is a mock implementation of domain.Transport for testing.
type mockTransport struct {
	mu        sync.Mutex
	reqChan   chan *domain.Request
	responses []*domain.Response
	started   bool
	closed    bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{reqChan: make(chan *domain.Request, 10)}
}

func (m *mockTransport) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *mockTransport) Send(response *domain.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return nil
}

func (m *mockTransport) Receive() <-chan *domain.Request {
	return m.reqChan
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.reqChan)
	}
	return nil
}

func (m *mockTransport) getAllResponses() []*domain.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Response(nil), m.responses...)
}

// roundTrip sends req and waits for the response carrying its id.
func (m *mockTransport) roundTrip(t *testing.T, req *domain.Request) *domain.Response {
	t.Helper()
	m.reqChan <- req
	var found *domain.Response
	require.Eventually(t, func() bool {
		for _, resp := range m.getAllResponses() {
			if resp.ID == req.ID {
				found = resp
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return found
}

// createTestServer starts a server over a mock transport with one mock tool.
func createTestServer(t *testing.T) (*Server, *mockTransport, *mockToolHandler) {
	t.Helper()
	transport := newMockTransport()
	handler := newMockHandler("projects", "list_projects")

	router, err := NewRequestRouter(handler)
	require.NoError(t, err)

	server := NewServer(transport, router, NewLogger(&bytes.Buffer{}, "debug", "json"), "1.2.3")
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, server.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = server.Close()
	})
	return server, transport, handler
}

// resultMap round-trips a result through JSON the way a client sees it.
func resultMap(t *testing.T, result any) map[string]any {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestServerStart(t *testing.T) {
	_, transport, _ := createTestServer(t)
	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.True(t, transport.started)
}

func TestServerInitialize(t *testing.T) {
	_, transport, _ := createTestServer(t)

	resp := transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: 1.0, Method: "initialize"})
	require.Nil(t, resp.Error)

	result := resultMap(t, resp.Result)
	assert.Equal(t, domain.MCPProtocolVersion, result["protocolVersion"])
	assert.Equal(t, map[string]any{"name": ServerName, "version": "1.2.3"}, result["serverInfo"])
	assert.Contains(t, result["capabilities"], "tools")
}

func TestServerToolsList(t *testing.T) {
	_, transport, _ := createTestServer(t)

	resp := transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: 2.0, Method: "tools/list"})
	require.Nil(t, resp.Error)

	tools := resultMap(t, resp.Result)["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "list_projects", tools[0].(map[string]any)["name"])
}

func TestServerToolsCall(t *testing.T) {
	_, transport, handler := createTestServer(t)

	resp := transport.roundTrip(t, &domain.Request{
		JSONRPC: "2.0",
		ID:      3.0,
		Method:  "tools/call",
		Params:  map[string]any{"name": "list_projects", "arguments": map[string]any{"active_only": true}},
	})
	require.Nil(t, resp.Error)
	assert.Equal(t, "projects ok", text(resp.Result.(*domain.ToolResponse)))
	assert.Equal(t, []string{"list_projects"}, handler.calls)
}

func TestServerToolsCallErrors(t *testing.T) {
	_, transport, handler := createTestServer(t)

	tests := []struct {
		name   string
		params any
		code   int
	}{
		{"no params", nil, domain.InvalidParams},
		{"no name", map[string]any{"arguments": map[string]any{}}, domain.InvalidParams},
		{"unknown tool", map[string]any{"name": "create_issue"}, domain.MethodNotFound},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: float64(10 + i), Method: "tools/call", Params: tt.params})
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}

	handler.err = &domain.APIError{StatusCode: 403, Message: "You are not authorized"}
	resp := transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: 20.0, Method: "tools/call", Params: map[string]any{"name": "list_projects"}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.AuthenticationError, resp.Error.Code)
	assert.Equal(t, "Access forbidden - insufficient permissions: You are not authorized", resp.Error.Message)
}

func TestServerRejectsInvalidRequests(t *testing.T) {
	_, transport, _ := createTestServer(t)

	resp := transport.roundTrip(t, &domain.Request{JSONRPC: "1.0", ID: 4.0, Method: "ping"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.InvalidRequest, resp.Error.Code)

	resp = transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: 5.0})
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.InvalidRequest, resp.Error.Code)

	resp = transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: 6.0, Method: "resources/list"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.MethodNotFound, resp.Error.Code)
}

func TestServerPing(t *testing.T) {
	_, transport, _ := createTestServer(t)
	resp := transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})
	require.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{}, resp.Result)
}

func TestServerIgnoresNotifications(t *testing.T) {
	_, transport, _ := createTestServer(t)

	transport.reqChan <- &domain.Request{JSONRPC: "2.0", Method: "notifications/initialized"}
	transport.reqChan <- &domain.Request{JSONRPC: "2.0", Method: "tools/list"}
	// a request after the notifications proves they were consumed
	transport.roundTrip(t, &domain.Request{JSONRPC: "2.0", ID: 7.0, Method: "ping"})

	time.Sleep(20 * time.Millisecond)
	responses := transport.getAllResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, 7.0, responses[0].ID)
}

func TestServerConcurrentRequests(t *testing.T) {
	_, transport, _ := createTestServer(t)

	const n = 8
	for i := range n {
		transport.reqChan <- &domain.Request{JSONRPC: "2.0", ID: float64(100 + i), Method: "tools/list"}
	}
	require.Eventually(t, func() bool {
		return len(transport.getAllResponses()) == n
	}, 2*time.Second, 5*time.Millisecond)

	seen := map[any]bool{}
	for _, resp := range transport.getAllResponses() {
		seen[resp.ID] = true
	}
	assert.Len(t, seen, n)
}

func TestServerClose(t *testing.T) {
	server, transport, _ := createTestServer(t)
	require.NoError(t, server.Close())

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.True(t, transport.closed)
}
