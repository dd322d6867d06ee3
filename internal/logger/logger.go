// Package logger appends tool-call audit events to a JSONL file.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/aurguard/aurguard/internal/redact"
)

// defaultMaxLogBytes triggers a single .1 rotation; the audit log must not
// grow without bound on long-lived servers.
const defaultMaxLogBytes = 10 * 1024 * 1024

// Event is one logged tool call.
type Event struct {
	Timestamp  string         `json:"timestamp"`
	Tool       string         `json:"tool"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Outcome    string         `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// AuditLogger is a mutex-guarded JSONL appender.
type AuditLogger struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func New(path string) (*AuditLogger, error) {
	file, err := openLog(path)
	if err != nil {
		return nil, err
	}
	return &AuditLogger{path: path, file: file}, nil
}

func openLog(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// Log writes one event, redacting credential-shaped strings first.
// Arguments may contain untrusted PKGBUILD text.
func (l *AuditLogger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Arguments = redact.RedactValues(event.Arguments)
	if event.Error != "" {
		event.Error = redact.Redact(event.Error)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := l.rotateIfNeeded(int64(len(data) + 1)); err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = l.file.Write(data)
	return err
}

// rotateIfNeeded moves the log aside to <path>.1 when the next write would
// push it past the size limit. Caller holds l.mu.
func (l *AuditLogger) rotateIfNeeded(incoming int64) error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size()+incoming < defaultMaxLogBytes {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil {
		return fmt.Errorf("rotating audit log: %w", err)
	}
	file, err := openLog(l.path)
	if err != nil {
		return err
	}
	l.file = file
	return nil
}

func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
