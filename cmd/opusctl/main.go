// Command opusctl sends actions and object reads to the workflow platform's
// GraphQL API and prints the decoded result.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jamesprial/opus-actions/internal/sink"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "opusctl",
		Usage: "Send generic actions and object reads to the platform GraphQL API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (env overrides still apply)",
				Sources: cli.EnvVars("OPUS_CONFIG_PATH"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "warn",
				Usage:   "Log Level (debug, info, warn, error, fatal)",
				Action: func(ctx context.Context, command *cli.Command, s string) error {
					if _, err := zapcore.ParseLevel(s); err != nil {
						return fmt.Errorf("invalid log level %s: %w", s, err)
					}
					return nil
				},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the result to a file or s3://bucket/key instead of stdout",
			},
			&cli.StringFlag{
				Name:  "compress",
				Value: string(sink.CompressionNone),
				Usage: "Compress the result (none, gzip, zstd)",
				Action: func(ctx context.Context, command *cli.Command, s string) error {
					_, err := sink.ParseCompression(s)
					return err
				},
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Send actions listed in confirm_actions without asking",
			},
		},
		Commands: []*cli.Command{
			callCommand(),
			getObjectCommand(),
			taskCommand(),
			changeCommand(),
			commentCommand(),
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			logger, err := createLogger(command.Bool("debug"), command.String("log-level"))
			if err != nil {
				return nil, err
			}
			logger.Debug("logger created", zap.String("log_level", command.String("log-level")))
			return withLogger(ctx, logger), nil
		},
		After: func(ctx context.Context, command *cli.Command) error {
			if logger := tryLogger(ctx); logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
	}
}

func main() {
	app := newApp()
	app.ExitErrHandler = func(ctx context.Context, command *cli.Command, err error) {
		if err == nil {
			return
		}
		if logger := tryLogger(ctx); logger != nil {
			logger.Fatal("command failed", zap.Error(err))
		}
		log.Fatal(fmt.Errorf("command failed: %w", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = app.Run(ctx, os.Args)
}
