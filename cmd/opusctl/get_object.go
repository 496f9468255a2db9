package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jamesprial/opus-actions/internal/graphql"
)

func getObjectCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-object",
		Usage:     "Run a read query and print one field of its data",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query-file",
				Usage: "Read the query from a file, or - for stdin",
			},
			&cli.StringFlag{
				Name:  "variables",
				Usage: "Query variables as a JSON object",
			},
			&cli.StringFlag{
				Name:  "field",
				Value: graphql.GetObjectField,
				Usage: "Top-level data field to read",
			},
			&cli.BoolFlag{
				Name:  "double-encoded",
				Usage: "Parse the field's result string as JSON",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "query",
				UsageText: "The GraphQL query",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			query, err := readInput(command.StringArg("query"), command.String("query-file"), stdin(command))
			if err != nil {
				return err
			}
			if query == "" {
				return fmt.Errorf("no query provided")
			}

			var vars map[string]any
			if v := command.String("variables"); v != "" {
				dec := json.NewDecoder(strings.NewReader(v))
				dec.UseNumber()
				if err := dec.Decode(&vars); err != nil {
					return fmt.Errorf("variables are not a JSON object: %w", err)
				}
			}

			s, err := newSession(ctx, command)
			if err != nil {
				return err
			}

			result, err := s.action.GetObjectRaw(ctx, query, vars,
				graphql.WithField(command.String("field")),
				graphql.WithDoubleEncoded(command.Bool("double-encoded")),
			)
			if err != nil {
				return fmt.Errorf("get object failed: %w", err)
			}

			return s.emit(ctx, result)
		},
	}
}
