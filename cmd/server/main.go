// Package main is the entry point for the opus-mcp server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jamesprial/opus-actions/internal/actions"
	"github.com/jamesprial/opus-actions/internal/auth"
	"github.com/jamesprial/opus-actions/internal/config"
	"github.com/jamesprial/opus-actions/internal/graphql"
	"github.com/jamesprial/opus-actions/internal/safety"
	"github.com/jamesprial/opus-actions/internal/tools"
)

const (
	defaultConfigPath = "/config/config.yaml"
	serverName        = "opus-mcp"
	serverVersion     = "1.0.0"
)

func main() {
	logger, err := createLogger(os.Getenv("OPUS_DEBUG") == "true", envOr("OPUS_LOG_LEVEL", "info"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg := loadConfig(logger)
	config.ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		logger.Warn("could not generate auth token, running without authentication", zap.Error(err))
	} else if tokenBefore == "" {
		logger.Info("generated auth token (set OPUS_MCP_AUTH_TOKEN to persist)", zap.String("token", token))
	}

	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Warn("could not open audit log, audit logging disabled",
				zap.String("path", cfg.Audit.LogPath), zap.Error(err))
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	handler, names, err := newHandler(cfg, auditLogger, logger)
	if err != nil {
		return err
	}
	logger.Info("registered tools", zap.Strings("tools", names))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", addr),
			zap.String("graphql_url", cfg.GraphQL.URL),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

// newHandler wires the GraphQL client, safety gates, and MCP tools into the
// authenticated Streamable HTTP handler. It returns the registered tool names.
func newHandler(cfg *config.Config, audit *safety.AuditLogger, logger *zap.Logger) (http.Handler, []string, error) {
	client, err := graphql.NewHTTPClient(cfg.GraphQL, graphql.WithLogger(logger.Named("graphql")))
	if err != nil {
		return nil, nil, fmt.Errorf("create graphql client: %w", err)
	}
	actionClient := graphql.NewActionClient(client)

	gate := actions.Gate{
		Filter:  safety.NewFilter(cfg.Safety.Actions.Allowlist, cfg.Safety.Actions.Denylist),
		Confirm: safety.NewConfirmationTracker(cfg.Safety.ConfirmActions),
		Audit:   audit,
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	var registrations []tools.Registration
	registrations = append(registrations, actions.ActionTools(actionClient, gate)...)
	registrations = append(registrations, actions.QueryTools(actionClient, client, audit)...)
	names := tools.RegisterAll(mcpServer, registrations)

	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken, logger.Named("auth"))
	return authMiddleware(httpHandler), names, nil
}

// loadConfig reads the config file named by OPUS_CONFIG_PATH, or
// /config/config.yaml. If the file cannot be read, DefaultConfig is returned.
func loadConfig(logger *zap.Logger) *config.Config {
	path := envOr("OPUS_CONFIG_PATH", defaultConfigPath)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Warn("could not load config, using defaults", zap.String("path", path), zap.Error(err))
		return config.DefaultConfig()
	}

	logger.Info("loaded config", zap.String("path", path))
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
