package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"openproject-mcp-server/internal/domain"
)

// ServerName is reported in the initialize handshake.
const ServerName = "openproject-mcp-server"

// Server is the main MCP server implementation.
// It reads requests from the transport, implements the MCP protocol
// methods, and routes tool calls.
type Server struct {
	transport domain.Transport
	router    *RequestRouter
	logger    *slog.Logger
	version   string

	wg sync.WaitGroup
}

// NewServer creates a new MCP server instance.
func NewServer(transport domain.Transport, router *RequestRouter, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		transport: transport,
		router:    router,
		logger:    logger,
		version:   version,
	}
}

// Start starts the transport and begins processing incoming requests.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		s.logger.Error("failed to start transport", slog.String("error", err.Error()))
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.logger.Info("server started", slog.String("version", s.version))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.processRequests(ctx)
	}()

	return nil
}

// processRequests handles each request on its own goroutine so a slow
// tool call does not hold up the others.
func (s *Server) processRequests(ctx context.Context) {
	reqChan := s.transport.Receive()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("server shutting down")
			return
		case req, ok := <-reqChan:
			if !ok {
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleRequest(ctx, req)
			}()
		}
	}
}

// handleRequest processes a single JSON-RPC request and sends the reply.
func (s *Server) handleRequest(ctx context.Context, req *domain.Request) {
	start := time.Now()
	s.logger.Debug("received request",
		slog.String("method", req.Method),
		slog.Any("request_id", req.ID))

	response := s.dispatch(ctx, req)
	if req.IsNotification() {
		return
	}

	if response.Error != nil {
		s.logger.Warn("request failed",
			slog.String("method", req.Method),
			slog.Any("request_id", req.ID),
			slog.Int("code", response.Error.Code),
			slog.String("error", response.Error.Message),
			slog.Duration("elapsed", time.Since(start)))
	} else {
		s.logger.Info("request completed",
			slog.String("method", req.Method),
			slog.Any("request_id", req.ID),
			slog.Duration("elapsed", time.Since(start)))
	}

	if err := s.transport.Send(response); err != nil {
		s.logger.Error("failed to send response",
			slog.Any("request_id", req.ID),
			slog.String("error", err.Error()))
	}
}

// dispatch runs the method and builds the response.
func (s *Server) dispatch(ctx context.Context, req *domain.Request) *domain.Response {
	response := domain.ReplyTo(req)

	if err := s.validateRequest(req); err != nil {
		response.Error = &domain.Error{Code: domain.InvalidRequest, Message: "Invalid Request", Data: err.Error()}
		return response
	}

	var (
		result any
		err    error
	)
	switch req.Method {
	case "initialize":
		result = s.handleInitialize()
	case "ping":
		result = map[string]any{}
	case "tools/list":
		result = map[string]any{"tools": s.router.ListAllTools()}
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req)
	default:
		if req.IsNotification() {
			// notifications/initialized and friends need no handling
			return response
		}
		err = &domain.Error{Code: domain.MethodNotFound, Message: "Method not found", Data: fmt.Sprintf("unknown method: %s", req.Method)}
	}

	if err != nil {
		response.Error = domain.MapError(err)
		return response
	}
	response.Result = result
	return response
}

// validateRequest validates the basic structure of a JSON-RPC request.
func (s *Server) validateRequest(req *domain.Request) error {
	if req.JSONRPC != domain.JSONRPCVersion {
		return fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)
	}
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// handleInitialize returns the server capabilities.
func (s *Server) handleInitialize() map[string]any {
	return map[string]any{
		"protocolVersion": domain.MCPProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": s.version,
		},
	}
}

// handleToolsCall routes a tools/call request.
func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) (*domain.ToolResponse, error) {
	toolReq, err := parseToolRequest(req.Params)
	if err != nil {
		return nil, &domain.Error{Code: domain.InvalidParams, Message: "Invalid params", Data: err.Error()}
	}

	resp, err := s.router.Route(ctx, toolReq)
	if err != nil {
		s.logger.Error("tool execution failed",
			slog.String("tool", toolReq.Name),
			slog.Any("request_id", req.ID),
			slog.String("error", err.Error()))
		return nil, err
	}
	return resp, nil
}

// parseToolRequest converts the params field into a ToolRequest.
func parseToolRequest(params any) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]any)
	}

	return &toolReq, nil
}

// Close shuts the transport down and waits for in-flight requests.
func (s *Server) Close() error {
	s.logger.Info("closing server")
	err := s.transport.Close()
	s.wg.Wait()
	return err
}
