// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jamesprial/opus-actions/internal/graphql"
	"github.com/jamesprial/opus-actions/internal/safety"
)

// JSONResult marshals v to JSON indented by four spaces and returns an
// mcp.CallToolResult. A json.RawMessage is re-indented only, so its key order
// and number literals are kept.
func JSONResult(v any) *mcp.CallToolResult {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(strings.TrimSuffix(buf.String(), "\n"))
}

// ErrorResult returns an mcp.CallToolResult that describes an error condition.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
}

// ClientErrorResult renders an error from the GraphQL client, prefixing the
// kind so an agent can tell a rejected call from an unreachable server.
func ClientErrorResult(err error) *mcp.CallToolResult {
	return ErrorResult(fmt.Sprintf("%s: %v", ErrorKind(err), err))
}

// ErrorKind names the category of a GraphQL client error.
func ErrorKind(err error) string {
	var (
		timeoutErr   *graphql.TimeoutError
		transportErr *graphql.TransportError
		missingErr   *graphql.MissingDataError
		malformedErr *graphql.MalformedResultError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &missingErr):
		return "missing data"
	case errors.As(err, &malformedErr):
		return "malformed result"
	default:
		return "request"
	}
}

// LogAudit logs a tool invocation to the audit logger, silently ignoring a nil logger.
func LogAudit(audit *safety.AuditLogger, toolName, action string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Tool:      toolName,
		Action:    action,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

// ConfirmPrompt issues a confirmation token bound to action and the payload
// fingerprint and returns the prompt result.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, action, fingerprint, description string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(action, fingerprint, description)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s action %q.\n\n%s\n\nTo proceed, call %s again with the same arguments and confirmation_token=%q.",
		toolName, action, description, toolName, token,
	))
}
