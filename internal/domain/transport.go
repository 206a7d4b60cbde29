package domain

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transport moves JSON-RPC messages between MCP clients and the server.
type Transport interface {
	// Start begins listening for incoming messages.
	Start(ctx context.Context) error

	// Send delivers a response to the client that sent the request.
	Send(response *Response) error

	// Receive returns the channel of incoming requests. It is closed when
	// the transport shuts down.
	Receive() <-chan *Request

	// Close shuts the transport down.
	Close() error
}

func decodeRequest(data []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &Error{Code: ParseError, Message: "Parse error", Data: err.Error()}
	}
	if req.JSONRPC != JSONRPCVersion {
		return &req, &Error{Code: InvalidRequest, Message: "Invalid Request", Data: "invalid jsonrpc version"}
	}
	return &req, nil
}

// StdioTransport reads newline-delimited JSON-RPC from a reader and writes
// responses, one per line, to a writer.
type StdioTransport struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	reqChan chan *Request
	logger  *slog.Logger
	mu      sync.Mutex
	closed  bool
}

// NewStdioTransport creates a StdioTransport over os.Stdin and os.Stdout.
func NewStdioTransport(logger *slog.Logger) *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout, logger)
}

// NewStdioTransportWithIO creates a StdioTransport over custom streams.
func NewStdioTransportWithIO(reader io.Reader, writer io.Writer, logger *slog.Logger) *StdioTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioTransport{
		reader:  bufio.NewReader(reader),
		writer:  bufio.NewWriter(writer),
		reqChan: make(chan *Request, 10),
		logger:  logger,
	}
}

// Start spawns the read loop.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	go t.readLoop(ctx)
	return nil
}

func (t *StdioTransport) readLoop(ctx context.Context) {
	defer close(t.reqChan)

	for {
		line, err := t.reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			req, rpcErr := decodeRequest([]byte(line))
			if rpcErr != nil {
				var id any
				if req != nil {
					id = req.ID
				}
				_ = t.Send(&Response{JSONRPC: JSONRPCVersion, ID: id, Error: rpcErr})
			} else {
				select {
				case t.reqChan <- req:
				case <-ctx.Done():
					return
				}
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.logger.Error("stdin read failed", slog.String("error", err.Error()))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Send writes one response line and flushes it.
func (t *StdioTransport) Send(response *Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}
	if response.JSONRPC == "" {
		response.JSONRPC = JSONRPCVersion
	}

	// json.Marshal escapes newlines inside strings, so the output is one line
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}

	return nil
}

// Receive returns the request channel.
func (t *StdioTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close marks the transport closed. The read loop closes the channel.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// HTTPTransport serves MCP over HTTP with server-sent events:
// GET /mcp opens an SSE stream and announces the message endpoint,
// POST /mcp/message?sessionId=... submits a request whose response is
// pushed on that session's stream.
type HTTPTransport struct {
	addr    string
	server  *http.Server
	reqChan chan *Request
	logger  *slog.Logger
	extra   map[string]http.Handler

	mu     sync.Mutex
	closed bool

	sessions   map[string]*sseSession
	sessionsMu sync.RWMutex

	keepAlive time.Duration
}

type sseSession struct {
	id       string
	messages chan *Response
	done     chan struct{}
	once     sync.Once
}

func (s *sseSession) close() {
	s.once.Do(func() { close(s.done) })
}

// HTTPOption customises an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHandler mounts an additional handler, e.g. /metrics.
func WithHandler(path string, handler http.Handler) HTTPOption {
	return func(t *HTTPTransport) {
		t.extra[path] = handler
	}
}

// WithKeepAlive sets the SSE keep-alive comment interval.
func WithKeepAlive(interval time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.keepAlive = interval
	}
}

// NewHTTPTransport creates an HTTPTransport listening on addr.
func NewHTTPTransport(addr string, logger *slog.Logger, opts ...HTTPOption) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	t := &HTTPTransport{
		addr:      addr,
		reqChan:   make(chan *Request, 32),
		logger:    logger,
		extra:     make(map[string]http.Handler),
		sessions:  make(map[string]*sseSession),
		keepAlive: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handler returns the HTTP handler, mainly for tests with httptest.
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", t.handleSSE)
	mux.HandleFunc("/mcp/message", t.handleMessage)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	for path, h := range t.extra {
		mux.Handle(path, h)
	}
	return mux
}

// Start begins serving and stops when ctx is cancelled.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.server = &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := t.server
	t.mu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("http transport stopped", slog.String("addr", t.addr), slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	return nil
}

func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	session := &sseSession{
		id:       uuid.NewString(),
		messages: make(chan *Response, 16),
		done:     make(chan struct{}),
	}

	t.sessionsMu.Lock()
	t.sessions[session.id] = session
	t.sessionsMu.Unlock()

	defer func() {
		t.sessionsMu.Lock()
		delete(t.sessions, session.id)
		t.sessionsMu.Unlock()
		session.close()
		t.logger.Info("sse session closed", slog.String("session", session.id))
	}()

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp/message?sessionId=%s\n\n", session.id)
	flusher.Flush()
	t.logger.Info("sse session established", slog.String("session", session.id), slog.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(t.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.done:
			return
		case response := <-session.messages:
			data, err := json.Marshal(response)
			if err != nil {
				t.logger.Error("failed to marshal response", slog.String("session", session.id), slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (t *HTTPTransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Missing sessionId parameter", http.StatusBadRequest)
		return
	}

	session := t.session(sessionID)
	if session == nil {
		http.Error(w, "Invalid session", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	req, rpcErr := decodeRequest(body)
	if rpcErr != nil {
		var id any
		if req != nil {
			id = req.ID
		}
		t.push(session, &Response{JSONRPC: JSONRPCVersion, ID: id, Error: rpcErr})
		w.WriteHeader(http.StatusAccepted)
		return
	}
	req.session = sessionID

	if !t.enqueue(req) {
		t.push(session, &Response{
			JSONRPC: JSONRPCVersion,
			ID:      req.ID,
			Error:   &Error{Code: InternalError, Message: "Internal error", Data: "request queue full"},
		})
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// enqueue hands req to the server without blocking. It holds mu so Close
// cannot close the channel underneath it.
func (t *HTTPTransport) enqueue(req *Request) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	select {
	case t.reqChan <- req:
		return true
	default:
		return false
	}
}

func (t *HTTPTransport) session(id string) *sseSession {
	t.sessionsMu.RLock()
	defer t.sessionsMu.RUnlock()
	return t.sessions[id]
}

func (t *HTTPTransport) push(session *sseSession, response *Response) bool {
	select {
	case session.messages <- response:
		return true
	case <-session.done:
		return false
	default:
		t.logger.Warn("sse session queue full, dropping response", slog.String("session", session.id))
		return false
	}
}

// Send pushes the response onto the SSE stream of the session its request
// came from.
func (t *HTTPTransport) Send(response *Response) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return fmt.Errorf("transport is closed")
	}

	if response.JSONRPC == "" {
		response.JSONRPC = JSONRPCVersion
	}

	session := t.session(response.session)
	if session == nil {
		return fmt.Errorf("no active session %q for response", response.session)
	}
	if !t.push(session, response) {
		return fmt.Errorf("failed to deliver response to session %s", session.id)
	}
	return nil
}

// Receive returns the request channel.
func (t *HTTPTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close stops the server and ends every SSE session.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	server := t.server
	t.mu.Unlock()

	t.sessionsMu.Lock()
	for _, session := range t.sessions {
		session.close()
	}
	t.sessions = make(map[string]*sseSession)
	t.sessionsMu.Unlock()

	var err error
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = server.Shutdown(ctx)
	}

	t.mu.Lock()
	close(t.reqChan)
	t.mu.Unlock()
	return err
}
