package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// JSONRPCVersion is the only protocol version accepted.
const JSONRPCVersion = "2.0"

// Request represents a JSON-RPC 2.0 request message.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`

	// session identifies the HTTP/SSE session a request arrived on so the
	// response can be routed back to it. Empty for stdio.
	session string
}

// Session returns the transport session the request arrived on.
func (r *Request) Session() string {
	return r.session
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC 2.0 response message.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`

	session string
}

// ReplyTo returns an empty response addressed to req.
func ReplyTo(req *Request) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      req.ID,
		session: req.session,
	}
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	return e.Message
}

// JSON-RPC 2.0 error codes
const (
	ParseError     = -32700 // Invalid JSON received
	InvalidRequest = -32600 // Invalid JSON-RPC request structure
	MethodNotFound = -32601 // Unknown MCP method or tool
	InvalidParams  = -32602 // Invalid method parameters
	InternalError  = -32603 // Server internal error

	ConfigurationErrorCode = -32001 // Connection settings missing
	AuthenticationError    = -32002 // 401/403 from OpenProject
	APIErrorCode           = -32003 // Other OpenProject rejection
	NetworkError           = -32004 // OpenProject unreachable
	RateLimitError         = -32005 // 429 from OpenProject
	PreconditionFailed     = -32006 // Rejected before any request was sent
	MalformedResponse      = -32007 // Success response missing required fields
)

// MapError converts an adapter error to a JSON-RPC error. The remote
// status and message are kept in Data so no detail is lost.
func MapError(err error) *Error {
	if err == nil {
		return nil
	}

	var (
		rpcErr       *Error
		configErr    *ConfigurationError
		preErr       *PreconditionError
		apiErr       *APIError
		shapeErr     *ResponseShapeError
		transportErr *TransportError
	)

	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.As(err, &configErr):
		return &Error{Code: ConfigurationErrorCode, Message: configErr.Error()}
	case errors.As(err, &preErr):
		return &Error{Code: PreconditionFailed, Message: preErr.Error()}
	case errors.As(err, &apiErr):
		return mapAPIError(apiErr)
	case errors.As(err, &shapeErr):
		return &Error{Code: MalformedResponse, Message: shapeErr.Error()}
	case errors.As(err, &transportErr):
		return &Error{Code: NetworkError, Message: "Network error", Data: transportErr.Error()}
	default:
		return &Error{Code: InternalError, Message: err.Error()}
	}
}

// mapAPIError maps HTTP status codes to JSON-RPC error codes.
func mapAPIError(apiErr *APIError) *Error {
	var code int
	var message string

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		code = AuthenticationError
		message = "Authentication failed"
	case http.StatusForbidden:
		code = AuthenticationError
		message = "Access forbidden - insufficient permissions"
	case http.StatusNotFound:
		code = APIErrorCode
		message = "Resource not found"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = InvalidParams
		message = "Invalid request"
	case http.StatusConflict:
		code = APIErrorCode
		message = "Conflict - the resource was changed concurrently"
	case http.StatusTooManyRequests:
		code = RateLimitError
		message = "Rate limit exceeded"
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway:
		code = NetworkError
		message = "Service unavailable"
	default:
		code = APIErrorCode
		message = fmt.Sprintf("OpenProject error (status %d)", apiErr.StatusCode)
	}

	if apiErr.Message != "" {
		message = message + ": " + apiErr.Message
	}

	data := map[string]any{
		"statusCode": apiErr.StatusCode,
	}
	if apiErr.Identifier != "" {
		data["errorIdentifier"] = apiErr.Identifier
	}
	if apiErr.Message != "" {
		data["message"] = apiErr.Message
	}
	if apiErr.Body != "" && apiErr.Message == "" {
		data["body"] = apiErr.Body
	}

	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
