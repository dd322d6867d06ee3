package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurguard/aurguard/internal/approval"
	"github.com/aurguard/aurguard/internal/pacman"
)

var (
	removeCascade bool
	removeForce   bool
)

var removeCmd = &cobra.Command{
	Use:   "remove <package>...",
	Short: "Remove installed packages after interactive confirmation",
	Args:  cobra.MinimumNArgs(1),
	RunE:  removeCommand,
}

func init() {
	removeCmd.Flags().BoolVar(&removeCascade, "cascade", false, "Also remove dependencies not required by other packages (-Rs)")
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "Skip dependency checks (-Rdd); may break the system")
	rootCmd.AddCommand(removeCmd)
}

func removeCommand(cmd *cobra.Command, args []string) error {
	_, deps, err := loadDeps()
	if err != nil {
		return err
	}

	var warnings []string
	for _, name := range args {
		if _, err := deps.Pacman.InstalledInfo(cmd.Context(), name); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s does not look installed", name))
		}
	}

	result := approval.Ask(approval.Prompt{
		Packages: args,
		Cascade:  removeCascade,
		Force:    removeForce,
		Warnings: warnings,
	})
	if !result.Approved {
		return fmt.Errorf("removal of %s aborted (%s)", strings.Join(args, ", "), result.UserAction)
	}

	out, err := deps.Pacman.Remove(cmd.Context(), args, pacman.RemoveOptions{
		Cascade: removeCascade,
		Force:   removeForce,
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(out))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", strings.Join(args, ", "))
	return nil
}
