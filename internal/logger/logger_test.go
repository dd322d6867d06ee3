package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAuditLogger_Log(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	event := Event{
		Timestamp:  "2026-02-02T12:00:00Z",
		Tool:       "search_aur",
		Arguments:  map[string]any{"query": "yay"},
		Outcome:    "ok",
		DurationMS: 42,
	}
	if err := lg.Log(event); err != nil {
		t.Fatalf("failed to log event: %v", err)
	}
	_ = lg.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var parsed Event
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to parse log line as JSON: %v", err)
	}
	if parsed.Tool != "search_aur" {
		t.Errorf("tool = %q", parsed.Tool)
	}
	if parsed.Outcome != "ok" {
		t.Errorf("outcome = %q", parsed.Outcome)
	}
	if parsed.Arguments["query"] != "yay" {
		t.Errorf("arguments = %v", parsed.Arguments)
	}
}

func TestAuditLogger_RedactsArguments(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	event := Event{
		Timestamp: "2026-02-02T12:00:00Z",
		Tool:      "analyze_pkgbuild_safety",
		Arguments: map[string]any{
			"pkgbuild_content": "pkgname=x\npassword=mysecretpassword\n",
		},
		Outcome: "ok",
	}
	if err := lg.Log(event); err != nil {
		t.Fatalf("failed to log event: %v", err)
	}
	_ = lg.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "mysecretpassword") {
		t.Error("secret reached the audit log")
	}
	if !strings.Contains(string(data), "[REDACTED]") {
		t.Error("expected a redaction placeholder")
	}
}

func TestAuditLogger_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	// Pre-create the log file already at the rotation limit.
	big := make([]byte, defaultMaxLogBytes)
	if err := os.WriteFile(logPath, big, 0600); err != nil {
		t.Fatalf("failed to seed large log file: %v", err)
	}

	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = lg.Close() }()

	event := Event{
		Timestamp: "2026-03-01T00:00:00Z",
		Tool:      "get_arch_news",
		Outcome:   "ok",
	}
	if err := lg.Log(event); err != nil {
		t.Fatalf("Log after rotation failed: %v", err)
	}

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected rotated file %s.1 to exist: %v", logPath, err)
	}

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("fresh log file missing: %v", err)
	}
	if info.Size() >= defaultMaxLogBytes {
		t.Errorf("fresh log file is still %d bytes; expected < %d", info.Size(), defaultMaxLogBytes)
	}
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	_ = lg.Close()

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("failed to stat log file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected file permissions 0600, got %04o", perm)
	}
}
