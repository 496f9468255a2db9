package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTempFile creates a temporary file with the given content and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}
	return path
}

const validYAML = `
server:
  port: 9090
  auth_token: test-secret-token
safety:
  actions:
    allowlist: ["Add*", "Editchange"]
    denylist: ["Deleteall*"]
  confirm_actions: ["Edit*"]
audit:
  enabled: true
  log_path: /custom/audit.log
graphql:
  url: https://opus.example.com/api/graphql
  timeout: 15
  authorization: Basic abc123
  dataspace: sandbox
  company_id: company-1
  process_network_id: network-1
  headers:
    X-Trace: on
output:
  s3:
    region: eu-west-1
    endpoint: http://minio:9000
    force_path_style: true
    prefix: opus
`

func Test_LoadConfig_Cases(t *testing.T) {
	tests := []struct {
		name        string
		setupPath   func(t *testing.T) string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid config loads all fields",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "valid.yaml", validYAML)
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg == nil {
					t.Fatal("expected non-nil config")
				}
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Server.AuthToken != "test-secret-token" {
					t.Errorf("Server.AuthToken = %q, want %q", cfg.Server.AuthToken, "test-secret-token")
				}
				wantAllow := []string{"Add*", "Editchange"}
				if len(cfg.Safety.Actions.Allowlist) != len(wantAllow) {
					t.Errorf("Safety.Actions.Allowlist = %v, want %v", cfg.Safety.Actions.Allowlist, wantAllow)
				} else {
					for i, v := range wantAllow {
						if cfg.Safety.Actions.Allowlist[i] != v {
							t.Errorf("Safety.Actions.Allowlist[%d] = %q, want %q", i, cfg.Safety.Actions.Allowlist[i], v)
						}
					}
				}
				if len(cfg.Safety.Actions.Denylist) != 1 || cfg.Safety.Actions.Denylist[0] != "Deleteall*" {
					t.Errorf("Safety.Actions.Denylist = %v, want [Deleteall*]", cfg.Safety.Actions.Denylist)
				}
				if len(cfg.Safety.ConfirmActions) != 1 || cfg.Safety.ConfirmActions[0] != "Edit*" {
					t.Errorf("Safety.ConfirmActions = %v, want [Edit*]", cfg.Safety.ConfirmActions)
				}
				if cfg.Audit.LogPath != "/custom/audit.log" {
					t.Errorf("Audit.LogPath = %q, want %q", cfg.Audit.LogPath, "/custom/audit.log")
				}
				g := cfg.GraphQL
				if g.URL != "https://opus.example.com/api/graphql" {
					t.Errorf("GraphQL.URL = %q", g.URL)
				}
				if g.Timeout != 15 {
					t.Errorf("GraphQL.Timeout = %d, want 15", g.Timeout)
				}
				if g.Authorization != "Basic abc123" || g.Dataspace != "sandbox" ||
					g.CompanyID != "company-1" || g.ProcessNetworkID != "network-1" {
					t.Errorf("GraphQL credentials = %+v", g)
				}
				if g.Headers["X-Trace"] != "on" {
					t.Errorf("GraphQL.Headers = %v, want X-Trace=on", g.Headers)
				}
			},
		},
		{
			name: "missing file returns error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return "/nonexistent/path/config.yaml"
			},
			wantErr:     true,
			errContains: "no such file",
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg != nil {
					t.Error("expected nil config for missing file")
				}
			},
		},
		{
			name: "invalid YAML returns unmarshal error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "invalid.yaml", "graphql: [unterminated\n  url: :::")
			},
			wantErr:     true,
			errContains: "unmarshal",
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg != nil {
					t.Error("expected nil config for invalid YAML")
				}
			},
		},
		{
			name: "empty file keeps defaults",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "empty.yaml", "")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg == nil {
					t.Fatal("expected non-nil config for empty file")
				}
				if cfg.Server.Port != 8080 {
					t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
				}
				if cfg.GraphQL.Timeout != 30 {
					t.Errorf("GraphQL.Timeout = %d, want default 30", cfg.GraphQL.Timeout)
				}
			},
		},
		{
			name: "partial file overrides only named fields",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "partial.yaml", "graphql:\n  company_id: acme\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.CompanyID != "acme" {
					t.Errorf("GraphQL.CompanyID = %q, want acme", cfg.GraphQL.CompanyID)
				}
				if cfg.GraphQL.Dataspace != "default" {
					t.Errorf("GraphQL.Dataspace = %q, want default", cfg.GraphQL.Dataspace)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setupPath(t)
			cfg, err := LoadConfig(path)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.errContains)) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func Test_DefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if !cfg.Audit.Enabled {
		t.Error("Audit.Enabled = false, want true")
	}
	if cfg.Audit.LogPath != "/config/audit.log" {
		t.Errorf("Audit.LogPath = %q, want %q", cfg.Audit.LogPath, "/config/audit.log")
	}
	if cfg.GraphQL.Dataspace != "default" {
		t.Errorf("GraphQL.Dataspace = %q, want %q", cfg.GraphQL.Dataspace, "default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func Test_DefaultConfig_ReturnsNewInstance(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()

	if cfg1 == cfg2 {
		t.Error("DefaultConfig() should return a new instance each time, got same pointer")
	}
}

func Test_Validate_Cases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "empty URL",
			mutate:  func(cfg *Config) { cfg.GraphQL.URL = "" },
			wantErr: "URL",
		},
		{
			name:    "malformed URL",
			mutate:  func(cfg *Config) { cfg.GraphQL.URL = "not a url" },
			wantErr: "URL",
		},
		{
			name:    "negative timeout",
			mutate:  func(cfg *Config) { cfg.GraphQL.Timeout = -1 },
			wantErr: "Timeout",
		},
		{
			name:    "port out of range",
			mutate:  func(cfg *Config) { cfg.Server.Port = 70000 },
			wantErr: "Port",
		},
		{
			name: "audit enabled without path",
			mutate: func(cfg *Config) {
				cfg.Audit.Enabled = true
				cfg.Audit.LogPath = ""
			},
			wantErr: "LogPath",
		},
		{
			name:    "malformed S3 endpoint",
			mutate:  func(cfg *Config) { cfg.Output.S3.Endpoint = "not a url" },
			wantErr: "Endpoint",
		},
		{
			name: "audit disabled without path",
			mutate: func(cfg *Config) {
				cfg.Audit.Enabled = false
				cfg.Audit.LogPath = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func Test_RequestHeaders_Cases(t *testing.T) {
	tests := []struct {
		name string
		cfg  GraphQLConfig
		want map[string]string
	}{
		{
			name: "all credential fields",
			cfg: GraphQLConfig{
				Authorization:    "Basic tok",
				Dataspace:        "default",
				CompanyID:        "c1",
				ProcessNetworkID: "n1",
			},
			want: map[string]string{
				"Authorization":    "Basic tok",
				"Dataspace":        "default",
				"companyId":        "c1",
				"processNetworkId": "n1",
			},
		},
		{
			name: "empty fields are omitted",
			cfg:  GraphQLConfig{Authorization: "Basic tok"},
			want: map[string]string{"Authorization": "Basic tok"},
		},
		{
			name: "named fields win over extra headers",
			cfg: GraphQLConfig{
				CompanyID: "c1",
				Headers:   map[string]string{"companyId": "other", "X-Extra": "1"},
			},
			want: map[string]string{"companyId": "c1", "X-Extra": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.RequestHeaders()
			if len(got) != len(tt.want) {
				t.Fatalf("RequestHeaders() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("header %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func Test_RequestHeaders_ReturnsCopy(t *testing.T) {
	cfg := GraphQLConfig{Headers: map[string]string{"X-Extra": "1"}}
	h := cfg.RequestHeaders()
	h["X-Extra"] = "changed"
	if cfg.Headers["X-Extra"] != "1" {
		t.Errorf("mutating the returned map changed the config: %v", cfg.Headers)
	}
}

func Test_LoadConfig_OutputS3(t *testing.T) {
	cfg, err := LoadConfig(writeTempFile(t, "output.yaml", validYAML))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	s3 := cfg.Output.S3
	if s3.Region != "eu-west-1" {
		t.Errorf("Region = %q, want %q", s3.Region, "eu-west-1")
	}
	if s3.Endpoint != "http://minio:9000" {
		t.Errorf("Endpoint = %q, want %q", s3.Endpoint, "http://minio:9000")
	}
	if !s3.ForcePathStyle {
		t.Error("ForcePathStyle = false, want true")
	}
	if s3.Prefix != "opus" {
		t.Errorf("Prefix = %q, want %q", s3.Prefix, "opus")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
