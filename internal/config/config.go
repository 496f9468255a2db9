// Package config provides configuration loading and defaults for the
// opus-actions server and CLI.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// ResourceFilter holds allowlist and denylist entries for a resource category.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig controls which actions may be sent and which of them need an
// explicit confirmation token first. Entries are glob patterns.
type SafetyConfig struct {
	Actions        ResourceFilter `yaml:"actions"`
	ConfirmActions []string       `yaml:"confirm_actions"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path" validate:"required_if=Enabled true"`
}

// ServerConfig holds network and authentication settings for the MCP server.
type ServerConfig struct {
	Port      int    `yaml:"port" validate:"gte=0,lte=65535"`
	AuthToken string `yaml:"auth_token"`
}

// GraphQLConfig holds connection details for the platform GraphQL API. The
// credential fields are opaque, pre-formed header values.
type GraphQLConfig struct {
	URL string `yaml:"url" validate:"required,url"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout          int               `yaml:"timeout" validate:"gte=0"`
	Authorization    string            `yaml:"authorization"`
	Dataspace        string            `yaml:"dataspace"`
	CompanyID        string            `yaml:"company_id"`
	ProcessNetworkID string            `yaml:"process_network_id"`
	Headers          map[string]string `yaml:"headers"`
}

// RequestHeaders returns a fresh map of the headers every request carries.
// Extra headers are applied first so the named credential fields win. Empty
// values are omitted.
func (g GraphQLConfig) RequestHeaders() map[string]string {
	h := make(map[string]string, len(g.Headers)+4)
	for k, v := range g.Headers {
		h[k] = v
	}
	set := func(name, value string) {
		if value != "" {
			h[name] = value
		}
	}
	set("Authorization", g.Authorization)
	set("Dataspace", g.Dataspace)
	set("companyId", g.CompanyID)
	set("processNetworkId", g.ProcessNetworkID)
	return h
}

// S3OutputConfig configures uploads for s3:// output targets. Empty
// credentials fall back to the default AWS credential chain.
type S3OutputConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	Prefix          string `yaml:"prefix"`
}

// OutputConfig holds CLI result output settings.
type OutputConfig struct {
	S3 S3OutputConfig `yaml:"s3"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Safety  SafetyConfig  `yaml:"safety"`
	Audit   AuditConfig   `yaml:"audit"`
	GraphQL GraphQLConfig `yaml:"graphql"`
	Output  OutputConfig  `yaml:"output"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// Fields absent from the file keep their DefaultConfig values. On error, nil
// is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
		GraphQL: GraphQLConfig{
			URL:       "http://localhost/api/graphql",
			Timeout:   30,
			Dataspace: "default",
		},
	}
}

// Validate checks cfg against its struct constraints.
func (c *Config) Validate() error {
	if err := defaultValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - OPUS_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - OPUS_GRAPHQL_URL overrides cfg.GraphQL.URL
//   - OPUS_AUTHORIZATION overrides cfg.GraphQL.Authorization
//   - OPUS_DATASPACE overrides cfg.GraphQL.Dataspace
//   - OPUS_COMPANY_ID overrides cfg.GraphQL.CompanyID
//   - OPUS_PROCESS_NETWORK_ID overrides cfg.GraphQL.ProcessNetworkID
//
// Empty variables are ignored.
func ApplyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"OPUS_MCP_AUTH_TOKEN", &cfg.Server.AuthToken},
		{"OPUS_GRAPHQL_URL", &cfg.GraphQL.URL},
		{"OPUS_AUTHORIZATION", &cfg.GraphQL.Authorization},
		{"OPUS_DATASPACE", &cfg.GraphQL.Dataspace},
		{"OPUS_COMPANY_ID", &cfg.GraphQL.CompanyID},
		{"OPUS_PROCESS_NETWORK_ID", &cfg.GraphQL.ProcessNetworkID},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
