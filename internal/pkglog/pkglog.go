// Package pkglog parses pacman transaction logs (/var/log/pacman.log).
// The log is line-oriented: "[timestamp] [component] details" where ALPM
// component lines describe package transactions such as
// "installed vim (9.1.0764-1)" or "upgraded linux (6.10.1-1 -> 6.10.2-1)".
package pkglog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Entry is one parsed transaction line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"` // ALPM, PACMAN, ALPM-SCRIPTLET
	Action    string    `json:"action"`    // installed, upgraded, removed, ...
	Package   string    `json:"package,omitempty"`
	Version   string    `json:"version,omitempty"`
	Raw       string    `json:"raw"`
}

var (
	lineRE   = regexp.MustCompile(`^\[([^\]]+)\]\s+\[([\w-]+)\]\s+(.+)$`)
	actionRE = regexp.MustCompile(`^(\w+)\s+(\S+)\s+\((.+)\)$`)
)

// timestamp layouts across pacman versions: old "2006-01-02 15:04" and the
// ISO form used since pacman 5.2.
var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04",
}

// ParseLine parses one log line. The second return is false for lines that
// are not in log format (e.g. scriptlet output continuation).
func ParseLine(line string) (Entry, bool) {
	m := lineRE.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return Entry{}, false
	}

	entry := Entry{
		Component: m[2],
		Action:    m[3],
		Raw:       strings.TrimSpace(line),
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, m[1]); err == nil {
			entry.Timestamp = ts
			break
		}
	}

	if am := actionRE.FindStringSubmatch(m[3]); am != nil {
		entry.Action = am[1]
		entry.Package = am[2]
		entry.Version = am[3]
	}
	return entry, true
}

// scan applies keep to every parsable line of r, collecting up to limit
// entries (limit <= 0 means unlimited).
func scan(r io.Reader, limit int, keep func(Entry) bool) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	for scanner.Scan() {
		entry, ok := ParseLine(scanner.Text())
		if !ok || !keep(entry) {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("reading pacman log: %w", err)
	}
	return entries, nil
}

// History returns transaction entries for one package, oldest first.
// An empty name matches every package transaction.
func History(r io.Reader, name string, limit int) ([]Entry, error) {
	return scan(r, limit, func(e Entry) bool {
		if e.Component != "ALPM" || e.Package == "" {
			return false
		}
		return name == "" || e.Package == name
	})
}

// WhenInstalled finds the most recent "installed" entry for a package.
func WhenInstalled(r io.Reader, name string) (*Entry, error) {
	entries, err := scan(r, 0, func(e Entry) bool {
		return e.Component == "ALPM" && e.Action == "installed" && e.Package == name
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no install record for %q", name)
	}
	last := entries[len(entries)-1]
	return &last, nil
}

// FailedTransactions returns error and interrupted-transaction lines.
func FailedTransactions(r io.Reader, limit int) ([]Entry, error) {
	return scan(r, limit, func(e Entry) bool {
		lower := strings.ToLower(e.Action)
		return strings.Contains(lower, "error") ||
			strings.Contains(lower, "transaction failed") ||
			strings.Contains(lower, "transaction interrupted")
	})
}

// SyncHistory returns database synchronization entries, oldest first.
func SyncHistory(r io.Reader, limit int) ([]Entry, error) {
	return scan(r, limit, func(e Entry) bool {
		return e.Component == "PACMAN" && strings.Contains(e.Action, "synchronizing package lists")
	})
}
