package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Send one action through the generic action mutation",
		ArgsUsage: "<action>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "payload",
				Aliases: []string{"p"},
				Usage:   "Action payload as JSON (default: {})",
			},
			&cli.StringFlag{
				Name:    "payload-file",
				Aliases: []string{"f"},
				Usage:   "Read the payload from a file, or - for stdin",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "action",
				UsageText: "The action name, e.g. Addtask",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			action := command.StringArg("action")
			if action == "" {
				return fmt.Errorf("no action provided")
			}

			raw, err := readInput(command.String("payload"), command.String("payload-file"), stdin(command))
			if err != nil {
				return err
			}
			if raw == "" {
				raw = "{}"
			}
			if !json.Valid([]byte(raw)) {
				return fmt.Errorf("payload is not valid JSON")
			}

			s, err := newSession(ctx, command)
			if err != nil {
				return err
			}
			if err := s.authorize(command, action); err != nil {
				return err
			}

			s.logger.Debug("sending action",
				zap.String("action", action),
				zap.String("graphql_url", s.client.URL()),
			)

			result, err := s.action.CallActionRaw(ctx, action, json.RawMessage(raw))
			if err != nil {
				return fmt.Errorf("action %s failed: %w", action, err)
			}

			return s.emit(ctx, result)
		},
	}
}
