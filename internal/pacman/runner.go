package pacman

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a package-manager command and returns its stdout.
// Tests substitute a stub; production uses execRunner.
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

// CommandExists reports whether a binary is resolvable in PATH.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// DetectAURHelper returns the preferred installed AUR helper, paru over
// yay, or "" when neither is in PATH.
func DetectAURHelper() string {
	for _, helper := range []string{"paru", "yay"} {
		if CommandExists(helper) {
			return helper
		}
	}
	return ""
}
