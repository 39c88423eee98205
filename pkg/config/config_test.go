package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoadExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "lyricist")
	file := writeConfig(t, "name: ${SAMPLE_NAME}\nport: 8080\n")

	cfg := &sample{Extra: "default"}
	if err := Load(file, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "lyricist" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Extra != "default" {
		t.Errorf("extra = %q, want default kept", cfg.Extra)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	file := writeConfig(t, "port: 0\n")
	err := Load(file, &sample{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &sample{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	file := writeConfig(t, "port: [unclosed\n")
	if err := Load(file, &sample{}); err == nil {
		t.Fatal("expected parse error")
	}
}
