// Package approval prompts the user before destructive pacman operations.
package approval

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

type Result struct {
	Approved   bool
	UserAction string
}

// Prompt describes the removal about to run.
type Prompt struct {
	Packages []string
	Cascade  bool
	Force    bool
	Warnings []string
}

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Ask blocks for a yes/no answer on stderr. Non-interactive sessions are
// denied; removals must never run unattended.
func Ask(p Prompt) Result {
	if !IsInteractive() {
		return Result{
			Approved:   false,
			UserAction: "auto_deny_non_interactive",
		}
	}

	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(os.Stderr, "║              ⚠️  CONFIRMATION REQUIRED                        ║")
	fmt.Fprintln(os.Stderr, "╚══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintf(os.Stderr, "About to remove: %s\n", strings.Join(p.Packages, ", "))
	if p.Cascade {
		fmt.Fprintln(os.Stderr, "Cascade: unneeded dependencies will be removed too (-Rs)")
	}
	if p.Force {
		fmt.Fprintln(os.Stderr, "Force: dependency checks are DISABLED (-Rdd); this can break the system")
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintln(os.Stderr, "Warnings:")
		for _, w := range p.Warnings {
			fmt.Fprintf(os.Stderr, "  • %s\n", w)
		}
	}

	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "  [y] Yes - remove the packages above")
	fmt.Fprintln(os.Stderr, "  [n] No - abort")
	fmt.Fprintln(os.Stderr, "")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Fprint(os.Stderr, "Your choice [y/n]: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return Result{
				Approved:   false,
				UserAction: "error_reading_input",
			}
		}

		switch strings.TrimSpace(strings.ToLower(input)) {
		case "y", "yes":
			return Result{
				Approved:   true,
				UserAction: "approve_once",
			}
		case "n", "no":
			return Result{
				Approved:   false,
				UserAction: "deny",
			}
		default:
			fmt.Fprintln(os.Stderr, "Invalid input. Please enter 'y' to proceed or 'n' to abort.")
		}
	}
}
