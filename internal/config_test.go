package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/lyricist/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Rhymes.Debounce != 200*time.Millisecond {
		t.Errorf("debounce = %v, want 200ms", cfg.Rhymes.Debounce)
	}
}

func TestRhymesConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RhymesConfig)
	}{
		{"empty base url", func(c *RhymesConfig) { c.BaseURL = "" }},
		{"bad base url", func(c *RhymesConfig) { c.BaseURL = "not a url" }},
		{"zero timeout", func(c *RhymesConfig) { c.Timeout = 0 }},
		{"zero max results", func(c *RhymesConfig) { c.MaxResults = 0 }},
		{"negative debounce", func(c *RhymesConfig) { c.Debounce = -time.Second }},
		{"negative cache", func(c *RhymesConfig) { c.CacheSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Rhymes
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	t.Setenv("LYRICIST_TEST_TOKEN", "s3cret")
	content := `app:
  log_level: debug
  http:
    port: 9090
documents:
  path: ` + dir + `
sqlite:
  path: ` + filepath.Join(dir, "db.sqlite") + `
rhymes:
  base_url: http://localhost:3000
  timeout: 2s
  max_results: 10
  debounce: 150ms
  cache_size: 0
auth:
  mode: token
  token: ${LYRICIST_TEST_TOKEN}
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(file, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Rhymes.Debounce != 150*time.Millisecond || cfg.Rhymes.Timeout != 2*time.Second {
		t.Errorf("rhymes = %+v", cfg.Rhymes)
	}
	if cfg.Auth.Token != "s3cret" || !cfg.Auth.AuthEnabled() {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}
