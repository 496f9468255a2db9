package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jamesprial/opus-actions/internal/workflow"
)

// sendRequest validates r, authorizes its action, and emits the result.
func sendRequest(ctx context.Context, command *cli.Command, r workflow.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s, err := newSession(ctx, command)
	if err != nil {
		return err
	}
	if err := s.authorize(command, r.Action()); err != nil {
		return err
	}

	result, err := workflow.Send(ctx, s.action, r)
	if err != nil {
		return err
	}
	return s.emit(ctx, result)
}

func taskCommand() *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Work with tasks",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a task from a template (Addtask)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template-id", Usage: "Task template ID", Required: true},
					&cli.StringFlag{Name: "summary", Usage: "Task summary", Required: true},
					&cli.StringFlag{Name: "description", Usage: "Task description"},
					&cli.StringFlag{Name: "priority", Usage: "LOW, MEDIUM, or HIGH"},
					&cli.StringFlag{Name: "due-date", Usage: "Due date as RFC 3339, YYYY-MM-DD, or epoch milliseconds"},
					&cli.BoolFlag{Name: "visible", Value: true, Usage: "Make the task visible"},
					&cli.BoolFlag{Name: "at-risk", Usage: "Flag the task as at risk"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					due, err := workflow.ParseDueDate(command.String("due-date"))
					if err != nil {
						return err
					}
					return sendRequest(ctx, command, workflow.Task{
						TemplateID:        command.String("template-id"),
						Summary:           command.String("summary"),
						Description:       command.String("description"),
						Priority:          workflow.Priority(command.String("priority")),
						CompletionDueDate: due,
						IsVisible:         command.Bool("visible"),
						IsAtRisk:          command.Bool("at-risk"),
					})
				},
			},
		},
	}
}

func changeCommand() *cli.Command {
	return &cli.Command{
		Name:  "change",
		Usage: "Work with changes",
		Commands: []*cli.Command{
			{
				Name:  "edit",
				Usage: "Edit an existing change (Editchange)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Change ID", Required: true},
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.StringFlag{Name: "priority", Usage: "LOW, MEDIUM, or HIGH"},
					&cli.StringFlag{Name: "responsible-party", Usage: "Responsible party at partner as a JSON object"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					var party map[string]any
					if v := command.String("responsible-party"); v != "" {
						if err := json.Unmarshal([]byte(v), &party); err != nil {
							return fmt.Errorf("responsible party is not a JSON object: %w", err)
						}
					}
					return sendRequest(ctx, command, workflow.ChangeEdit{
						ID:               command.String("id"),
						Description:      command.String("description"),
						Priority:         workflow.Priority(command.String("priority")),
						ResponsibleParty: party,
					})
				},
			},
		},
	}
}

func commentCommand() *cli.Command {
	return &cli.Command{
		Name:  "comment",
		Usage: "Work with process comments",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Comment on a compliance exception or document review",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "process-id", Usage: "Process ID", Required: true},
					&cli.StringFlag{Name: "process-type", Usage: "complianceException or documentReview", Required: true},
					&cli.StringFlag{Name: "text", Usage: "Comment text", Required: true},
					&cli.StringFlag{Name: "visibility", Value: string(workflow.VisibilityPublic), Usage: "Public or Private"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return sendRequest(ctx, command, workflow.Comment{
						ProcessID:   command.String("process-id"),
						ProcessType: workflow.ProcessType(command.String("process-type")),
						Text:        command.String("text"),
						Visibility:  workflow.Visibility(command.String("visibility")),
					})
				},
			},
		},
	}
}
