package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PacmanLog != DefaultPacmanLog {
		t.Errorf("pacman log = %q", cfg.PacmanLog)
	}
	if cfg.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("http addr = %q", cfg.HTTPAddr)
	}
	if len(cfg.Mirrors) == 0 {
		t.Error("default mirrors missing")
	}
	if cfg.LogPath == "" {
		t.Error("log path not defaulted")
	}
	if cfg.RequestTimeout.Std() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.RequestTimeout)
	}

	// Load must create the config dir.
	if _, err := os.Stat(cfg.ConfigDir); err != nil {
		t.Errorf("config dir not created: %v", err)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `aur_base_url: https://aur.example.org
pacman_log_path: /tmp/pacman.log
http_addr: 127.0.0.1:9999
mirrors:
  - https://mirror.example.org/
request_timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AURBaseURL != "https://aur.example.org" {
		t.Errorf("aur base = %q", cfg.AURBaseURL)
	}
	if cfg.PacmanLog != "/tmp/pacman.log" {
		t.Errorf("pacman log = %q", cfg.PacmanLog)
	}
	if cfg.HTTPAddr != "127.0.0.1:9999" {
		t.Errorf("http addr = %q", cfg.HTTPAddr)
	}
	if len(cfg.Mirrors) != 1 || cfg.Mirrors[0] != "https://mirror.example.org/" {
		t.Errorf("mirrors = %v", cfg.Mirrors)
	}
	if cfg.RequestTimeout.Std() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.RequestTimeout)
	}
	// Fields the file omitted keep their defaults.
	if cfg.WikiBaseURL != "" {
		t.Errorf("wiki base = %q", cfg.WikiBaseURL)
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoad_LogPathFlagWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", "/tmp/custom.jsonl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogPath != "/tmp/custom.jsonl" {
		t.Errorf("log path = %q", cfg.LogPath)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mirrors: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected parse error")
	}
}
