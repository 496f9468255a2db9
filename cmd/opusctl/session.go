package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/jamesprial/opus-actions/internal/config"
	"github.com/jamesprial/opus-actions/internal/graphql"
	"github.com/jamesprial/opus-actions/internal/safety"
	"github.com/jamesprial/opus-actions/internal/sink"
)

// session is what every subcommand needs: a client built from the resolved
// config, the configured action gates, and the result destination.
type session struct {
	client  *graphql.HTTPClient
	action  *graphql.ActionClient
	filter  *safety.Filter
	confirm *safety.ConfirmationTracker
	logger  *zap.Logger

	out         sink.Sink
	outPath     string
	compression sink.Compression
}

func newSession(ctx context.Context, command *cli.Command) (*session, error) {
	logger := getLogger(ctx)

	cfg := config.DefaultConfig()
	if path := command.String("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Debug("loaded config", zap.String("path", path))
	}
	config.ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	compression, err := sink.ParseCompression(command.String("compress"))
	if err != nil {
		return nil, err
	}

	// Resolve the output before anything is sent.
	out, outPath, err := sink.Open(ctx, command.String("output"), stdout(command), sink.S3Config{
		Region:          cfg.Output.S3.Region,
		Endpoint:        cfg.Output.S3.Endpoint,
		Prefix:          cfg.Output.S3.Prefix,
		AccessKeyID:     cfg.Output.S3.AccessKeyID,
		SecretAccessKey: cfg.Output.S3.SecretAccessKey,
		ForcePathStyle:  cfg.Output.S3.ForcePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	client, err := graphql.NewHTTPClient(cfg.GraphQL, graphql.WithLogger(logger.Named("graphql")))
	if err != nil {
		return nil, fmt.Errorf("failed to create graphql client: %w", err)
	}

	return &session{
		client:      client,
		action:      graphql.NewActionClient(client),
		filter:      safety.NewFilter(cfg.Safety.Actions.Allowlist, cfg.Safety.Actions.Denylist),
		confirm:     safety.NewConfirmationTracker(cfg.Safety.ConfirmActions),
		logger:      logger,
		out:         out,
		outPath:     outPath,
		compression: compression,
	}, nil
}

// authorize rejects actions the configured filter denies, and asks before
// sending actions that match a confirm_actions pattern unless --yes is set.
func (s *session) authorize(command *cli.Command, action string) error {
	if !s.filter.IsAllowed(action) {
		return fmt.Errorf("action %q is not allowed by configuration", action)
	}
	if !s.confirm.NeedsConfirmation(action) || command.Bool("yes") {
		return nil
	}
	if !isInteractive(command) {
		return fmt.Errorf("action %q requires confirmation; rerun with --yes", action)
	}
	return promptConfirm(stdin(command), stderr(command), action)
}

// emit writes result as indented JSON to the session's output, compressed if
// asked.
func (s *session) emit(ctx context.Context, result json.RawMessage) error {
	var buf bytes.Buffer
	if err := printJSON(&buf, result); err != nil {
		return err
	}

	data, err := sink.Compress(s.compression, buf.Bytes())
	if err != nil {
		return err
	}

	if err := s.out.Write(ctx, s.outPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write result to %s: %w", s.out.Name(), err)
	}
	if s.out.Kind() != "stream" {
		s.logger.Info("wrote result",
			zap.String("sink", s.out.Name()),
			zap.String("path", s.outPath),
			zap.String("compression", string(s.compression)),
		)
	}
	return nil
}

// printJSON writes raw indented by four spaces. Only whitespace changes: key
// order and number literals are the server's.
func printJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "    "); err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// readInput returns the literal value, or the contents of file when set. A
// file of "-" reads r.
func readInput(literal, file string, r io.Reader) (string, error) {
	switch {
	case literal != "" && file != "":
		return "", fmt.Errorf("give either a value or a file, not both")
	case file == "-":
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	default:
		return literal, nil
	}
}

// stdout, stderr, and stdin resolve the root command's streams so tests can
// swap them.
func stdout(command *cli.Command) io.Writer {
	if w := command.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(command *cli.Command) io.Writer {
	if w := command.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func stdin(command *cli.Command) io.Reader {
	if r := command.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}
