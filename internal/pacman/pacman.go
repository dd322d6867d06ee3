// Package pacman wraps the local Arch package manager CLI. Every operation
// shells out through a Runner so behavior is testable without pacman
// installed. Write operations go through sudo and only run after the caller
// has confirmed with the user.
package pacman

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Manager runs pacman queries and transactions.
type Manager struct {
	runner Runner
}

// New returns a Manager that executes real commands.
func New() *Manager {
	return &Manager{runner: execRunner{}}
}

// NewWithRunner returns a Manager backed by a custom Runner (tests).
func NewWithRunner(r Runner) *Manager {
	return &Manager{runner: r}
}

// PackageInfo is the parsed output of pacman -Si/-Qi.
type PackageInfo struct {
	Repository   string   `json:"repository,omitempty"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	URL          string   `json:"url,omitempty"`
	Licenses     []string `json:"licenses,omitempty"`
	DependsOn    []string `json:"depends_on,omitempty"`
	InstalledSum string   `json:"installed_size,omitempty"`
}

// Update is one pending upgrade from checkupdates.
type Update struct {
	Name       string `json:"name"`
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
}

// Info queries the sync database for one package (pacman -Si).
func (m *Manager) Info(ctx context.Context, name string) (*PackageInfo, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Si", name)
	if err != nil {
		return nil, fmt.Errorf("package %q not found in official repositories: %w", name, err)
	}
	info := parsePackageInfo(out)
	if info.Name == "" {
		return nil, fmt.Errorf("package %q not found in official repositories", name)
	}
	return info, nil
}

// InstalledInfo queries the local database (pacman -Qi).
func (m *Manager) InstalledInfo(ctx context.Context, name string) (*PackageInfo, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Qi", name)
	if err != nil {
		return nil, fmt.Errorf("package %q is not installed: %w", name, err)
	}
	return parsePackageInfo(out), nil
}

// parsePackageInfo parses pacman's "Key : Value" block format, including
// continuation lines that start with whitespace.
func parsePackageInfo(out string) *PackageInfo {
	fields := map[string]string{}
	var lastKey string

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, " ") && lastKey != "" {
			fields[lastKey] += " " + strings.TrimSpace(line)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lastKey = strings.TrimSpace(key)
		fields[lastKey] = strings.TrimSpace(value)
	}

	return &PackageInfo{
		Repository:   fields["Repository"],
		Name:         fields["Name"],
		Version:      fields["Version"],
		Description:  fields["Description"],
		URL:          fields["URL"],
		Licenses:     splitList(fields["Licenses"]),
		DependsOn:    splitList(fields["Depends On"]),
		InstalledSum: fields["Installed Size"],
	}
}

func splitList(value string) []string {
	if value == "" || value == "None" {
		return nil
	}
	return strings.Fields(value)
}

// CheckUpdates lists pending upgrades without applying them. Requires the
// checkupdates helper from pacman-contrib. Exit status 2 (no updates) is
// reported by checkupdates as an error with empty output; that case returns
// an empty slice, not an error.
func (m *Manager) CheckUpdates(ctx context.Context) ([]Update, error) {
	out, err := m.runner.Run(ctx, "checkupdates")
	if err != nil && strings.TrimSpace(out) == "" {
		return []Update{}, nil
	}

	var updates []Update
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		// format: "name oldver -> newver"
		parts := strings.Fields(line)
		if len(parts) != 4 || parts[2] != "->" {
			continue
		}
		updates = append(updates, Update{Name: parts[0], OldVersion: parts[1], NewVersion: parts[3]})
	}
	return updates, nil
}

// Orphans lists packages installed as dependencies that nothing requires
// anymore (pacman -Qdtq).
func (m *Manager) Orphans(ctx context.Context) ([]string, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Qdtq")
	if err != nil {
		// pacman -Qdtq exits non-zero when there are no orphans
		if strings.TrimSpace(out) == "" {
			return []string{}, nil
		}
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// Installed lists all installed packages with versions (pacman -Q).
func (m *Manager) Installed(ctx context.Context) ([]string, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Q")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// Explicit lists explicitly installed packages (pacman -Qe).
func (m *Manager) Explicit(ctx context.Context) ([]string, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Qe")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// Owner reports which package owns a file (pacman -Qo).
func (m *Manager) Owner(ctx context.Context, path string) (string, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Qo", path)
	if err != nil {
		return "", fmt.Errorf("no package owns %s: %w", path, err)
	}
	// format: "/usr/bin/vim is owned by vim 9.1.0-1"
	_, owner, ok := strings.Cut(strings.TrimSpace(out), " is owned by ")
	if !ok {
		return "", fmt.Errorf("unexpected pacman -Qo output: %q", out)
	}
	return owner, nil
}

// RemoveOptions control how Remove builds the pacman transaction.
type RemoveOptions struct {
	// Cascade removes dependencies not required elsewhere (-Rs).
	Cascade bool
	// Force ignores dependency checks (-Rdd). Dangerous.
	Force bool
}

// Remove uninstalls packages via sudo pacman. The caller is responsible for
// confirming with the user first; this call itself runs non-interactively.
func (m *Manager) Remove(ctx context.Context, names []string, opts RemoveOptions) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no packages given")
	}

	flag := "-R"
	switch {
	case opts.Force:
		flag = "-Rdd"
	case opts.Cascade:
		flag = "-Rs"
	}

	args := append([]string{"pacman", flag, "--noconfirm"}, names...)
	out, err := m.runner.Run(ctx, "sudo", args...)
	if err != nil {
		return out, fmt.Errorf("removing %s: %w", strings.Join(names, ", "), err)
	}
	return out, nil
}

// Install installs official-repository packages via sudo pacman. Like
// Remove, the caller confirms first; the transaction itself runs
// non-interactively.
func (m *Manager) Install(ctx context.Context, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no packages given")
	}
	args := append([]string{"pacman", "-S", "--noconfirm", "--needed"}, names...)
	out, err := m.runner.Run(ctx, "sudo", args...)
	if err != nil {
		return out, fmt.Errorf("installing %s: %w", strings.Join(names, ", "), err)
	}
	return out, nil
}

// InstallAUR builds and installs one AUR package through a helper
// (paru or yay). Helpers manage their own privilege escalation.
func (m *Manager) InstallAUR(ctx context.Context, helper, name string) (string, error) {
	if helper == "" {
		return "", fmt.Errorf("no AUR helper available; install paru or yay")
	}
	out, err := m.runner.Run(ctx, helper, "-S", "--noconfirm", name)
	if err != nil {
		return out, fmt.Errorf("installing %s via %s: %w", name, helper, err)
	}
	return out, nil
}

// Files lists the files owned by an installed package (pacman -Ql),
// optionally filtered by a substring or regular expression.
func (m *Manager) Files(ctx context.Context, name, pattern string) ([]string, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Ql", name)
	if err != nil {
		return nil, fmt.Errorf("package %q is not installed: %w", name, err)
	}

	var filter *regexp.Regexp
	if pattern != "" {
		filter, err = regexp.Compile(pattern)
		if err != nil {
			// treat non-regex patterns as plain substrings
			filter = regexp.MustCompile(regexp.QuoteMeta(pattern))
		}
	}

	var files []string
	for _, line := range nonEmptyLines(out) {
		// format: "vim /usr/bin/vim"
		_, path, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		if filter != nil && !filter.MatchString(path) {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// SearchFiles searches the file database for packages shipping a file
// (pacman -F). Requires a synced file database (pacman -Fy).
func (m *Manager) SearchFiles(ctx context.Context, pattern string) ([]string, error) {
	out, err := m.runner.Run(ctx, "pacman", "-F", pattern)
	if err != nil {
		if strings.TrimSpace(out) == "" {
			return []string{}, nil
		}
		return nil, fmt.Errorf("searching file database (is it synced? pacman -Fy): %w", err)
	}
	return nonEmptyLines(out), nil
}

// Verify checks package file integrity (pacman -Qk, or -Qkk when thorough).
func (m *Manager) Verify(ctx context.Context, name string, thorough bool) (string, error) {
	flag := "-Qk"
	if thorough {
		flag = "-Qkk"
	}
	out, err := m.runner.Run(ctx, "pacman", flag, name)
	if err != nil && strings.TrimSpace(out) == "" {
		return "", err
	}
	// -Qk exits non-zero when files are altered; the report is the output.
	return strings.TrimSpace(out), nil
}

// Groups lists package groups with member counts (pacman -Sg).
func (m *Manager) Groups(ctx context.Context) (map[string]int, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Sg")
	if err != nil {
		return nil, err
	}
	groups := map[string]int{}
	for _, line := range nonEmptyLines(out) {
		groups[strings.TrimSpace(line)]++
	}
	return groups, nil
}

// GroupPackages lists the members of one group (pacman -Sg <group>).
func (m *Manager) GroupPackages(ctx context.Context, group string) ([]string, error) {
	out, err := m.runner.Run(ctx, "pacman", "-Sg", group)
	if err != nil {
		return nil, fmt.Errorf("group %q not found: %w", group, err)
	}
	var pkgs []string
	for _, line := range nonEmptyLines(out) {
		// format: "group package"
		if _, pkg, ok := strings.Cut(line, " "); ok {
			pkgs = append(pkgs, strings.TrimSpace(pkg))
		}
	}
	sort.Strings(pkgs)
	return pkgs, nil
}

func nonEmptyLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// arch release markers, overridable in tests
var (
	archReleasePath = "/etc/arch-release"
	osReleasePath   = "/etc/os-release"
)

// IsArch reports whether the host is an Arch Linux system. Operations that
// mutate the system refuse to run elsewhere.
func IsArch() bool {
	if _, err := os.Stat(archReleasePath); err == nil {
		return true
	}
	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "ID=arch" {
			return true
		}
	}
	return false
}
