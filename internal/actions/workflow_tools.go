package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/opus-actions/internal/tools"
	"github.com/jamesprial/opus-actions/internal/workflow"
)

// sendRequest validates r and passes it through the gate.
func (g Gate) sendRequest(ctx context.Context, caller ActionCaller, toolName string, r workflow.Request, token, description string, params map[string]any, start time.Time) *mcp.CallToolResult {
	if err := r.Validate(); err != nil {
		tools.LogAudit(g.Audit, toolName, r.Action(), params, "error: "+err.Error(), start)
		return tools.ErrorResult(err.Error())
	}
	return g.send(ctx, caller, toolName, r.Action(), r, token, description, params, start)
}

// toolTaskAdd constructs the opus_task_add Registration.
func toolTaskAdd(caller ActionCaller, gate Gate) tools.Registration {
	const toolName = "opus_task_add"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Create a task from a task template (action Addtask)."),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description("ID of the task template"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Short task summary"),
		),
		mcp.WithString("description",
			mcp.Description("Task description"),
		),
		mcp.WithString("priority",
			mcp.Description("Business priority: LOW, MEDIUM, or HIGH"),
		),
		mcp.WithString("due_date",
			mcp.Description("Completion due date as RFC 3339, YYYY-MM-DD, or epoch milliseconds"),
		),
		mcp.WithBoolean("visible",
			mcp.Description("Whether the task is visible (default: true)"),
		),
		mcp.WithBoolean("at_risk",
			mcp.Description("Whether the task is flagged at risk (default: false)"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call when Addtask requires confirmation"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		task := workflow.Task{
			TemplateID:  req.GetString("template_id", ""),
			Summary:     req.GetString("summary", ""),
			Description: req.GetString("description", ""),
			Priority:    workflow.Priority(req.GetString("priority", "")),
			IsVisible:   req.GetBool("visible", true),
			IsAtRisk:    req.GetBool("at_risk", false),
		}
		dueDate := req.GetString("due_date", "")
		token := req.GetString("confirmation_token", "")

		params := map[string]any{
			"template_id": task.TemplateID,
			"summary":     task.Summary,
			"priority":    string(task.Priority),
			"due_date":    dueDate,
		}

		due, err := workflow.ParseDueDate(dueDate)
		if err != nil {
			tools.LogAudit(gate.Audit, toolName, task.Action(), params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		task.CompletionDueDate = due

		desc := fmt.Sprintf("This will create task %q from template %s.", task.Summary, task.TemplateID)
		return gate.sendRequest(ctx, caller, toolName, task, token, desc, params, start), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// toolChangeEdit constructs the opus_change_edit Registration.
func toolChangeEdit(caller ActionCaller, gate Gate) tools.Registration {
	const toolName = "opus_change_edit"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Edit an existing change (action Editchange)."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the change to edit"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("priority",
			mcp.Description("Business priority: LOW, MEDIUM, or HIGH"),
		),
		mcp.WithString("responsible_party",
			mcp.Description("Responsible party at partner as a JSON object string (default: {})"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call when Editchange requires confirmation"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		edit := workflow.ChangeEdit{
			ID:          req.GetString("id", ""),
			Description: req.GetString("description", ""),
			Priority:    workflow.Priority(req.GetString("priority", "")),
		}
		partyStr := req.GetString("responsible_party", "")
		token := req.GetString("confirmation_token", "")

		params := map[string]any{
			"id":                edit.ID,
			"priority":          string(edit.Priority),
			"responsible_party": partyStr,
		}

		party, err := parseVariables(partyStr)
		if err != nil {
			msg := fmt.Sprintf("parse responsible_party JSON: %v", err)
			tools.LogAudit(gate.Audit, toolName, edit.Action(), params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}
		edit.ResponsibleParty = party

		desc := fmt.Sprintf("This will edit change %s.", edit.ID)
		return gate.sendRequest(ctx, caller, toolName, edit, token, desc, params, start), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// toolCommentAdd constructs the opus_comment_add Registration.
func toolCommentAdd(caller ActionCaller, gate Gate) tools.Registration {
	const toolName = "opus_comment_add"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Add a comment to a compliance exception or document review. The action is chosen from the process type."),
		mcp.WithString("process_id",
			mcp.Required(),
			mcp.Description("ID of the process to comment on"),
		),
		mcp.WithString("process_type",
			mcp.Required(),
			mcp.Description("Process type: complianceException or documentReview"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Comment text"),
		),
		mcp.WithString("visibility",
			mcp.Description("Comment visibility: Public (default) or Private"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call when the comment action requires confirmation"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		comment := workflow.Comment{
			ProcessID:   req.GetString("process_id", ""),
			ProcessType: workflow.ProcessType(req.GetString("process_type", "")),
			Text:        req.GetString("text", ""),
			Visibility:  workflow.Visibility(req.GetString("visibility", "")),
		}
		token := req.GetString("confirmation_token", "")

		params := map[string]any{
			"process_id":   comment.ProcessID,
			"process_type": string(comment.ProcessType),
			"visibility":   string(comment.Visibility),
		}

		desc := fmt.Sprintf("This will add a comment to %s %s.", comment.ProcessType, comment.ProcessID)
		return gate.sendRequest(ctx, caller, toolName, comment, token, desc, params, start), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
