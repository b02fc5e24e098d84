package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":8090" {
		t.Errorf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.ModelServerURL != "http://localhost:11434" {
		t.Errorf("unexpected model server url %q", cfg.ModelServerURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9000"
data_dir: /var/lib/ragdesk
log_level: debug
watch:
  dir: /srv/inbox
  pipeline_id: abc-123
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.DataDir != "/var/lib/ragdesk" {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.Watch.Dir != "/srv/inbox" || cfg.Watch.PipelineID != "abc-123" {
		t.Errorf("unexpected watch config %+v", cfg.Watch)
	}
	// Values absent from the file keep their defaults.
	if cfg.ModelServerURL != "http://localhost:11434" {
		t.Errorf("unexpected model server url %q", cfg.ModelServerURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RAGDESK_LISTEN_ADDR", ":7777")
	t.Setenv("RAGDESK_MODEL_SERVER_URL", "http://models.internal:11434")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("env override lost: %q", cfg.ListenAddr)
	}
	if cfg.ModelServerURL != "http://models.internal:11434" {
		t.Errorf("env override lost: %q", cfg.ModelServerURL)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
