package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/0x6d61/reportwiz/internal/config"
)

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `rules_file: /opt/reportwiz/report_event.conf
events_dir: /opt/reportwiz/events
workflows_dir: /opt/reportwiz/workflows
shell: /bin/bash
event_log:
  high_watermark: 4096
  low_watermark: 1024
noninteractive: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RulesFile != "/opt/reportwiz/report_event.conf" {
		t.Errorf("expected rules file '/opt/reportwiz/report_event.conf', got '%s'", cfg.RulesFile)
	}
	if cfg.Shell != "/bin/bash" {
		t.Errorf("expected shell '/bin/bash', got '%s'", cfg.Shell)
	}
	if cfg.EventLog.HighWatermark != 4096 || cfg.EventLog.LowWatermark != 1024 {
		t.Errorf("unexpected watermarks: %+v", cfg.EventLog)
	}
	if !cfg.NonInteractive {
		t.Error("expected noninteractive to be true")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_REPORT_HOME", "/home/testuser")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `rules_file: "${TEST_REPORT_HOME}/report_event.conf"
decisions_file: "${TEST_REPORT_HOME}/decisions.toml"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RulesFile != "/home/testuser/report_event.conf" {
		t.Errorf("expected expanded path, got '%s'", cfg.RulesFile)
	}
	if cfg.DecisionsFile != "/home/testuser/decisions.toml" {
		t.Errorf("expected expanded path, got '%s'", cfg.DecisionsFile)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	cfg, err := config.Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected nil error for missing file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil default config")
	}
	if cfg.RulesFile != config.DefaultRulesFile {
		t.Errorf("expected default rules file, got '%s'", cfg.RulesFile)
	}
	if cfg.DecisionsFile != "/xdg/reportwiz/decisions.toml" {
		t.Errorf("expected XDG decisions file, got '%s'", cfg.DecisionsFile)
	}
	if cfg.EventLog.HighWatermark != 30*1024 || cfg.EventLog.LowWatermark != 20*1024 {
		t.Errorf("unexpected default watermarks: %+v", cfg.EventLog)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("rules_file: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_BadWatermarks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `event_log:
  high_watermark: 1000
  low_watermark: 2000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error when low watermark exceeds high watermark")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := config.DefaultPath(); got != "/xdg/reportwiz/config.yaml" {
		t.Errorf("got %q", got)
	}
}
