package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if got := cfg.Server.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8080", got)
	}
	if cfg.Converter.Binary != "soffice" {
		t.Errorf("Binary = %q, want soffice", cfg.Converter.Binary)
	}
	if cfg.Converter.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Converter.Workers)
	}
	if cfg.Converter.TerminationGrace != 2*time.Second {
		t.Errorf("TerminationGrace = %v, want 2s", cfg.Converter.TerminationGrace)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log config = %q/%q, want info/json", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Telemetry.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want redis disabled by default", cfg.Telemetry.RedisAddr)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CONVERTER_WORKERS", "8")
	t.Setenv("CONVERTER_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Converter.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Converter.Workers)
	}
	if cfg.Converter.OperationTimeout != 30*time.Second {
		t.Errorf("OperationTimeout = %v, want 30s", cfg.Converter.OperationTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 7070
converter:
  workers: 4
  binary: /opt/libreoffice/program/soffice
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// The file wins over the environment.
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070 from the file", cfg.Server.Port)
	}
	if cfg.Converter.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Converter.Workers)
	}
	if cfg.Converter.Binary != "/opt/libreoffice/program/soffice" {
		t.Errorf("Binary = %q", cfg.Converter.Binary)
	}
	// Untouched keys keep their env/default values.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("serverr:\n  port: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() accepted a config with an unknown key")
	}
}

func TestFlagOverrides(t *testing.T) {
	flags, err := parseFlags([]string{"--addr", "127.0.0.1:9000", "--workers", "6", "--verbose"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if err := flags.apply(cfg); err != nil {
		t.Fatalf("apply() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("addr = %s, want 127.0.0.1:9000", cfg.Server.Addr())
	}
	if cfg.Converter.Workers != 6 {
		t.Errorf("Workers = %d, want 6", cfg.Converter.Workers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestFlagBadAddr(t *testing.T) {
	flags, err := parseFlags([]string{"--addr", "no-port"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if err := flags.apply(cfg); err == nil {
		t.Error("apply() accepted an address without a port")
	}
}
