package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/opus-actions/internal/graphql"
	"github.com/jamesprial/opus-actions/internal/safety"
	"github.com/jamesprial/opus-actions/internal/tools"
)

// QueryTools returns the read tools: opus_get_object and the raw
// opus_graphql_query escape hatch.
func QueryTools(caller ActionCaller, client graphql.Client, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGetObject(caller, audit),
		toolGraphQLQuery(client, audit),
	}
}

// toolGetObject constructs the opus_get_object Registration.
func toolGetObject(caller ActionCaller, audit *safety.AuditLogger) tools.Registration {
	const toolName = "opus_get_object"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Run a read query and return one field of its data, by default genericGetObject. Set double_encoded when the field holds a JSON-encoded result string."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query string"),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables"),
		),
		mcp.WithString("field",
			mcp.Description("Top-level data field to read (default: genericGetObject)"),
		),
		mcp.WithBoolean("double_encoded",
			mcp.Description("Decode the field's result string as JSON (default: false)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")
		field := req.GetString("field", "")
		doubleEncoded := req.GetBool("double_encoded", false)

		params := map[string]any{
			"query":          query,
			"variables":      variablesStr,
			"field":          field,
			"double_encoded": doubleEncoded,
		}

		if query == "" {
			tools.LogAudit(audit, toolName, "", params, "error: query is required", start)
			return tools.ErrorResult("query is required"), nil
		}

		vars, err := parseVariables(variablesStr)
		if err != nil {
			msg := fmt.Sprintf("parse variables JSON: %v", err)
			tools.LogAudit(audit, toolName, "", params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		result, err := caller.GetObjectRaw(ctx, query, vars,
			graphql.WithField(field),
			graphql.WithDoubleEncoded(doubleEncoded),
		)
		if err != nil {
			tools.LogAudit(audit, toolName, "", params, "error: "+err.Error(), start)
			return tools.ClientErrorResult(err), nil
		}

		tools.LogAudit(audit, toolName, "", params, "ok", start)
		return tools.JSONResult(result), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// toolGraphQLQuery constructs the opus_graphql_query Registration.
func toolGraphQLQuery(client graphql.Client, audit *safety.AuditLogger) tools.Registration {
	const toolName = "opus_graphql_query"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Execute an arbitrary GraphQL query or mutation against the platform API and return its data. Use when direct API access is needed beyond the provided tools."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query or mutation string to execute."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables to pass with the query."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")

		params := map[string]any{
			"query":     query,
			"variables": variablesStr,
		}

		vars, err := parseVariables(variablesStr)
		if err != nil {
			msg := fmt.Sprintf("parse variables JSON: %v", err)
			tools.LogAudit(audit, toolName, "", params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		resp, err := client.Execute(ctx, query, vars)
		if err != nil {
			tools.LogAudit(audit, toolName, "", params, "error: "+err.Error(), start)
			return tools.ClientErrorResult(err), nil
		}

		if len(resp.Errors) > 0 {
			msg := "graphql: " + resp.ErrorMessages()
			tools.LogAudit(audit, toolName, "", params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		tools.LogAudit(audit, toolName, "", params, "ok", start)
		return tools.JSONResult(resp.Data), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
