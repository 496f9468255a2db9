package config

import (
	"encoding/hex"
	"os"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// ApplyEnvOverrides
// ---------------------------------------------------------------------------

var overrideEnvVars = []string{
	"OPUS_MCP_AUTH_TOKEN",
	"OPUS_GRAPHQL_URL",
	"OPUS_AUTHORIZATION",
	"OPUS_DATASPACE",
	"OPUS_COMPANY_ID",
	"OPUS_PROCESS_NETWORK_ID",
}

// clearOverrideEnv unsets every recognised variable for the duration of the test.
func clearOverrideEnv(t *testing.T) {
	t.Helper()
	for _, name := range overrideEnvVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func Test_ApplyEnvOverrides_Cases(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		initial  Config
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "token env set on empty config",
			env:  map[string]string{"OPUS_MCP_AUTH_TOKEN": "my-token"},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.AuthToken != "my-token" {
					t.Errorf("AuthToken = %q, want %q", cfg.Server.AuthToken, "my-token")
				}
			},
		},
		{
			name:    "env overrides existing credentials",
			env:     map[string]string{"OPUS_AUTHORIZATION": "Basic new", "OPUS_COMPANY_ID": "c2"},
			initial: Config{GraphQL: GraphQLConfig{Authorization: "Basic old", CompanyID: "c1"}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.Authorization != "Basic new" {
					t.Errorf("Authorization = %q, want %q", cfg.GraphQL.Authorization, "Basic new")
				}
				if cfg.GraphQL.CompanyID != "c2" {
					t.Errorf("CompanyID = %q, want %q", cfg.GraphQL.CompanyID, "c2")
				}
			},
		},
		{
			name: "all graphql fields",
			env: map[string]string{
				"OPUS_GRAPHQL_URL":        "https://opus.example.com/api/graphql",
				"OPUS_DATASPACE":          "sandbox",
				"OPUS_PROCESS_NETWORK_ID": "net-9",
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.URL != "https://opus.example.com/api/graphql" {
					t.Errorf("URL = %q", cfg.GraphQL.URL)
				}
				if cfg.GraphQL.Dataspace != "sandbox" {
					t.Errorf("Dataspace = %q, want sandbox", cfg.GraphQL.Dataspace)
				}
				if cfg.GraphQL.ProcessNetworkID != "net-9" {
					t.Errorf("ProcessNetworkID = %q, want net-9", cfg.GraphQL.ProcessNetworkID)
				}
			},
		},
		{
			name:    "unset env preserves existing values",
			initial: Config{Server: ServerConfig{AuthToken: "existing"}, GraphQL: GraphQLConfig{Dataspace: "prod"}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.AuthToken != "existing" {
					t.Errorf("AuthToken = %q, want existing", cfg.Server.AuthToken)
				}
				if cfg.GraphQL.Dataspace != "prod" {
					t.Errorf("Dataspace = %q, want prod", cfg.GraphQL.Dataspace)
				}
			},
		},
		{
			name:    "empty env does not override",
			env:     map[string]string{"OPUS_DATASPACE": ""},
			initial: Config{GraphQL: GraphQLConfig{Dataspace: "prod"}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.Dataspace != "prod" {
					t.Errorf("Dataspace = %q, want prod", cfg.GraphQL.Dataspace)
				}
			},
		},
		{
			name:    "other fields unchanged",
			env:     map[string]string{"OPUS_MCP_AUTH_TOKEN": "token"},
			initial: Config{Server: ServerConfig{Port: 9090}, GraphQL: GraphQLConfig{Timeout: 12}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.Port != 9090 {
					t.Errorf("Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.GraphQL.Timeout != 12 {
					t.Errorf("Timeout = %d, want 12", cfg.GraphQL.Timeout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearOverrideEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			ApplyEnvOverrides(&cfg)
			tt.validate(t, &cfg)
		})
	}
}

// ---------------------------------------------------------------------------
// EnsureAuthToken
// ---------------------------------------------------------------------------

func Test_EnsureAuthToken_Cases(t *testing.T) {
	t.Run("token already set returns existing token unchanged", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "pre-set",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "pre-set" {
			t.Errorf("returned token = %q, want %q", token, "pre-set")
		}
		if cfg.Server.AuthToken != "pre-set" {
			t.Errorf("cfg.Server.AuthToken = %q, want %q", cfg.Server.AuthToken, "pre-set")
		}
	})

	t.Run("empty token generates and sets new token", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token == "" {
			t.Fatal("returned token is empty, expected a generated value")
		}
		if cfg.Server.AuthToken != token {
			t.Errorf("cfg.Server.AuthToken = %q, want %q (returned token)", cfg.Server.AuthToken, token)
		}
	})

	t.Run("generated token is 32 characters", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 32 {
			t.Errorf("len(token) = %d, want 32", len(token))
		}
	})

	t.Run("generated token is valid hex", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoded, err := hex.DecodeString(token)
		if err != nil {
			t.Fatalf("token %q is not valid hex: %v", token, err)
		}
		if len(decoded) != 16 {
			t.Errorf("decoded length = %d, want 16 bytes", len(decoded))
		}
	})

	t.Run("two calls produce different tokens", func(t *testing.T) {
		cfg1 := &Config{Server: ServerConfig{AuthToken: ""}}
		cfg2 := &Config{Server: ServerConfig{AuthToken: ""}}

		token1, err := EnsureAuthToken(cfg1)
		if err != nil {
			t.Fatalf("first call error: %v", err)
		}

		token2, err := EnsureAuthToken(cfg2)
		if err != nil {
			t.Fatalf("second call error: %v", err)
		}

		if token1 == token2 {
			t.Errorf("two generated tokens are identical: %q", token1)
		}
	})
}

// ---------------------------------------------------------------------------
// GenerateRandomToken
// ---------------------------------------------------------------------------

func Test_GenerateRandomToken_Cases(t *testing.T) {
	t.Run("returns 32 character string", func(t *testing.T) {
		token, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 32 {
			t.Errorf("len(token) = %d, want 32", len(token))
		}
	})

	t.Run("output is valid hex encoding 16 bytes", func(t *testing.T) {
		token, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoded, err := hex.DecodeString(token)
		if err != nil {
			t.Fatalf("token %q is not valid hex: %v", token, err)
		}
		if len(decoded) != 16 {
			t.Errorf("decoded byte length = %d, want 16", len(decoded))
		}
	})

	t.Run("two calls return different values", func(t *testing.T) {
		token1, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("first call error: %v", err)
		}

		token2, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("second call error: %v", err)
		}

		if token1 == token2 {
			t.Errorf("two generated tokens are identical: %q", token1)
		}
	})

	t.Run("concurrent calls all succeed with unique tokens", func(t *testing.T) {
		const goroutines = 100

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			tokens = make(map[string]struct{}, goroutines)
			errs   []error
		)

		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				token, err := GenerateRandomToken()
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				tokens[token] = struct{}{}
			}()
		}
		wg.Wait()

		if len(errs) > 0 {
			t.Fatalf("got %d errors in concurrent calls; first: %v", len(errs), errs[0])
		}

		if len(tokens) != goroutines {
			t.Errorf("expected %d unique tokens, got %d (collisions detected)", goroutines, len(tokens))
		}
	})
}
