// Package sysinfo collects host diagnostics: kernel and memory facts,
// disk usage on the paths pacman cares about, failed systemd units, and
// boot logs. Everything shells out through a Runner so it is testable
// without systemd or a real filesystem layout.
package sysinfo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes a diagnostic command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

// Collector runs the diagnostic commands.
type Collector struct {
	runner Runner
}

// New returns a Collector that executes real commands.
func New() *Collector {
	return &Collector{runner: execRunner{}}
}

// NewWithRunner returns a Collector backed by a custom Runner (tests).
func NewWithRunner(r Runner) *Collector {
	return &Collector{runner: r}
}

// SystemInfo is the basic host identity and memory summary.
type SystemInfo struct {
	Kernel       string `json:"kernel"`
	Architecture string `json:"architecture"`
	Hostname     string `json:"hostname"`
	Uptime       string `json:"uptime,omitempty"`
	MemTotalMB   int    `json:"mem_total_mb,omitempty"`
	MemUsedMB    int    `json:"mem_used_mb,omitempty"`
	MemFreeMB    int    `json:"mem_free_mb,omitempty"`
}

// SystemInfo gathers kernel, architecture, hostname, uptime, and memory
// statistics. Individual command failures leave their field empty rather
// than failing the whole report.
func (c *Collector) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	info := &SystemInfo{}

	if out, err := c.runner.Run(ctx, "uname", "-r"); err == nil {
		info.Kernel = strings.TrimSpace(out)
	}
	if out, err := c.runner.Run(ctx, "uname", "-m"); err == nil {
		info.Architecture = strings.TrimSpace(out)
	}
	if out, err := c.runner.Run(ctx, "hostname"); err == nil {
		info.Hostname = strings.TrimSpace(out)
	}
	if out, err := c.runner.Run(ctx, "uptime", "-p"); err == nil {
		info.Uptime = strings.TrimSpace(out)
	}
	if out, err := c.runner.Run(ctx, "free", "-m"); err == nil {
		parseFree(out, info)
	}

	if info.Kernel == "" && info.Hostname == "" {
		return nil, fmt.Errorf("no system information available")
	}
	return info, nil
}

// parseFree reads the "Mem:" row of free -m output.
func parseFree(out string, info *SystemInfo) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "Mem:") {
			continue
		}
		fields := strings.Fields(line)
		// Mem: total used free ...
		if len(fields) < 4 {
			return
		}
		info.MemTotalMB, _ = strconv.Atoi(fields[1])
		info.MemUsedMB, _ = strconv.Atoi(fields[2])
		info.MemFreeMB, _ = strconv.Atoi(fields[3])
		return
	}
}

// diskPaths are the mounts relevant to package operations.
var diskPaths = []string{"/", "/home", "/var", "/var/cache/pacman/pkg"}

// DiskUsage is the usage of one filesystem path.
type DiskUsage struct {
	Path        string `json:"path"`
	MountPoint  string `json:"mount_point"`
	TotalMB     int    `json:"total_mb"`
	UsedMB      int    `json:"used_mb"`
	AvailableMB int    `json:"available_mb"`
	UsedPercent int    `json:"used_percent"`
	Low         bool   `json:"low_space,omitempty"`
}

// DiskSpace reports usage for root, home, var, and the pacman cache.
// Paths that do not resolve are skipped; usage above 90% is marked low.
func (c *Collector) DiskSpace(ctx context.Context) ([]DiskUsage, error) {
	var usages []DiskUsage
	for _, path := range diskPaths {
		out, err := c.runner.Run(ctx, "df", "-P", "-k", path)
		if err != nil {
			continue
		}
		if u, ok := parseDF(out); ok {
			u.Path = path
			u.Low = u.UsedPercent > 90
			usages = append(usages, u)
		}
	}
	if len(usages) == 0 {
		return nil, fmt.Errorf("df produced no usable output")
	}
	return usages, nil
}

// parseDF reads the data row of POSIX df output:
// "Filesystem 1024-blocks Used Available Capacity Mounted on".
func parseDF(out string) (DiskUsage, bool) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return DiskUsage{}, false
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 6 {
		return DiskUsage{}, false
	}

	total, _ := strconv.Atoi(fields[1])
	used, _ := strconv.Atoi(fields[2])
	avail, _ := strconv.Atoi(fields[3])
	pct, _ := strconv.Atoi(strings.TrimSuffix(fields[4], "%"))

	return DiskUsage{
		MountPoint:  fields[5],
		TotalMB:     total / 1024,
		UsedMB:      used / 1024,
		AvailableMB: avail / 1024,
		UsedPercent: pct,
	}, true
}

// FailedUnit is one failed systemd unit.
type FailedUnit struct {
	Unit        string `json:"unit"`
	Load        string `json:"load"`
	Active      string `json:"active"`
	Sub         string `json:"sub"`
	Description string `json:"description,omitempty"`
}

// FailedServices lists failed systemd units. An empty list means the
// system is healthy.
func (c *Collector) FailedServices(ctx context.Context) ([]FailedUnit, error) {
	out, err := c.runner.Run(ctx, "systemctl", "--failed", "--no-legend", "--plain")
	if err != nil {
		return nil, fmt.Errorf("querying systemd: %w", err)
	}

	units := []FailedUnit{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		// UNIT LOAD ACTIVE SUB DESCRIPTION...
		if len(fields) < 4 {
			continue
		}
		unit := FailedUnit{Unit: fields[0], Load: fields[1], Active: fields[2], Sub: fields[3]}
		if len(fields) > 4 {
			unit.Description = strings.Join(fields[4:], " ")
		}
		units = append(units, unit)
	}
	return units, nil
}

// BootLogs returns the last lines of the current boot's journal.
func (c *Collector) BootLogs(ctx context.Context, lines int) (string, error) {
	if lines <= 0 {
		lines = 100
	}
	out, err := c.runner.Run(ctx, "journalctl", "-b", "--no-pager", "-n", strconv.Itoa(lines))
	if err != nil {
		return "", fmt.Errorf("reading journal: %w", err)
	}
	return strings.TrimSpace(out), nil
}
