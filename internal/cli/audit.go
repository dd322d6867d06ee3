package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurguard/aurguard/internal/analyzer"
)

var auditCmd = &cobra.Command{
	Use:   "audit <package>",
	Short: "Audit an AUR package before installing it",
	Long: `Fetches the package's AUR metadata and PKGBUILD, runs both analyzers,
and prints the combined report. Exits non-zero for HIGH RISK packages so
the command can gate scripts.`,
	Args: cobra.ExactArgs(1),
	RunE: auditCommand,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func auditCommand(cmd *cobra.Command, args []string) error {
	_, deps, err := loadDeps()
	if err != nil {
		return err
	}

	report, err := deps.AUR.FetchAudit(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("auditing %s: %w", args[0], err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if report.RiskTier == analyzer.TierHighRisk {
		return fmt.Errorf("%s is %s", args[0], report.RiskTier)
	}
	return nil
}
