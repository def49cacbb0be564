// Package mcpserver implements the midos MCP server: tool registration,
// per-call gating, the skill resource, and the stdio and streamable HTTP
// transports.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/MidOSresearch/midos-mcp/internal/auth"
)

// MCP error codes.
const (
	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603

	// ErrCodeAuthInvalid indicates an unknown or revoked API key.
	ErrCodeAuthInvalid = -32001

	// ErrCodeTierForbidden indicates the caller's tier is too low for the tool.
	ErrCodeTierForbidden = -32002

	// ErrCodeQuotaExceeded indicates the monthly query allowance is spent.
	ErrCodeQuotaExceeded = -32003
)

// MCPError is an MCP protocol error with code, message, and optional data.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors at the dispatcher
// boundary. Gate failures carry stable codes; everything else collapses
// to an internal error.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var gateErr *auth.GateError
	if errors.As(err, &gateErr) {
		return mapGateError(gateErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeInternalError, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeInternalError, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// mapGateError converts an auth gate failure to the matching MCP code.
func mapGateError(ge *auth.GateError) *MCPError {
	switch ge.Code {
	case auth.CodeAuthInvalid:
		return &MCPError{Code: ErrCodeAuthInvalid, Message: ge.Message}
	case auth.CodeTierForbidden:
		return &MCPError{Code: ErrCodeTierForbidden, Message: ge.Message}
	case auth.CodeQuotaExceeded:
		return &MCPError{
			Code:    ErrCodeQuotaExceeded,
			Message: ge.Message,
			Data: map[string]any{
				"count":       ge.Count,
				"limit":       ge.Limit,
				"upgrade_url": ge.UpgradeURL,
			},
		}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: ge.Message}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a
// custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}
