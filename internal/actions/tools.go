// Package actions exposes the workflow platform's generic action mutation and
// object queries as MCP tools.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/opus-actions/internal/graphql"
	"github.com/jamesprial/opus-actions/internal/safety"
	"github.com/jamesprial/opus-actions/internal/tools"
)

// ActionCaller sends actions and reads objects. *graphql.ActionClient
// satisfies it.
type ActionCaller interface {
	CallActionRaw(ctx context.Context, action string, payload any) (json.RawMessage, error)
	GetObjectRaw(ctx context.Context, query string, variables map[string]any, opts ...graphql.GetOption) (json.RawMessage, error)
}

var _ ActionCaller = (*graphql.ActionClient)(nil)

// Gate holds the checks every outgoing action passes through. Any field may
// be nil: a nil Filter allows everything, a nil Confirm confirms nothing, and
// a nil Audit logs nothing.
type Gate struct {
	Filter  *safety.Filter
	Confirm *safety.ConfirmationTracker
	Audit   *safety.AuditLogger
}

// ActionTools returns the tools that send actions: opus_action_call and the
// typed workflow tools.
func ActionTools(caller ActionCaller, gate Gate) []tools.Registration {
	return []tools.Registration{
		toolActionCall(caller, gate),
		toolTaskAdd(caller, gate),
		toolChangeEdit(caller, gate),
		toolCommentAdd(caller, gate),
	}
}

// send checks action against the filter, asks for confirmation when the
// action requires it, then sends payload and renders the result as the
// server returned it.
func (g Gate) send(ctx context.Context, caller ActionCaller, toolName, action string, payload any, token, description string, params map[string]any, start time.Time) *mcp.CallToolResult {
	if !g.Filter.IsAllowed(action) {
		msg := fmt.Sprintf("action %q is not allowed by the configured filter", action)
		tools.LogAudit(g.Audit, toolName, action, params, "denied", start)
		return tools.ErrorResult(msg)
	}

	if g.Confirm.NeedsConfirmation(action) {
		fingerprint := safety.Fingerprint(payload)
		if !g.Confirm.Confirm(token, action, fingerprint) {
			tools.LogAudit(g.Audit, toolName, action, params, "confirmation requested", start)
			return tools.ConfirmPrompt(g.Confirm, toolName, action, fingerprint, description)
		}
	}

	result, err := caller.CallActionRaw(ctx, action, payload)
	if err != nil {
		tools.LogAudit(g.Audit, toolName, action, params, "error: "+err.Error(), start)
		return tools.ClientErrorResult(err)
	}

	tools.LogAudit(g.Audit, toolName, action, params, "ok", start)
	return tools.JSONResult(result)
}

// parseObject checks that s is a JSON value and returns it unchanged, so the
// payload goes upstream with its key order and number literals intact. An
// empty string yields an empty object.
func parseObject(s string) (json.RawMessage, error) {
	if s == "" {
		return json.RawMessage(`{}`), nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return json.RawMessage(s), nil
}

// parseVariables decodes s as a JSON object of GraphQL variables, keeping
// numbers as json.Number. An empty string yields nil.
func parseVariables(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var vars map[string]any
	if err := dec.Decode(&vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// toolActionCall constructs the opus_action_call Registration.
func toolActionCall(caller ActionCaller, gate Gate) tools.Registration {
	const toolName = "opus_action_call"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Send a named action with a JSON payload through the platform's generic action mutation and return the decoded result. Actions listed in the confirmation policy require a confirmation token."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Action name, e.g. Addtask or Editchange"),
		),
		mcp.WithString("payload",
			mcp.Description("Action payload as a JSON string (default: {})"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call for actions that require confirmation"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		action := req.GetString("action", "")
		payloadStr := req.GetString("payload", "")
		token := req.GetString("confirmation_token", "")

		params := map[string]any{
			"action":  action,
			"payload": payloadStr,
		}

		if action == "" {
			tools.LogAudit(gate.Audit, toolName, action, params, "error: action is required", start)
			return tools.ErrorResult("action is required"), nil
		}

		payload, err := parseObject(payloadStr)
		if err != nil {
			msg := fmt.Sprintf("parse payload JSON: %v", err)
			tools.LogAudit(gate.Audit, toolName, action, params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		shown := payloadStr
		if shown == "" {
			shown = "{}"
		}
		desc := fmt.Sprintf("This will send action %s with payload %s.", action, shown)
		return gate.send(ctx, caller, toolName, action, payload, token, desc, params, start), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
