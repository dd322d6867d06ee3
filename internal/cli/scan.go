package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurguard/aurguard/internal/analyzer"
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan a PKGBUILD file for dangerous patterns",
	Long: `Reads a PKGBUILD from the given file (or stdin when the argument is "-"
or omitted) and prints the safety report. Exits non-zero when the PKGBUILD
is not considered safe, so the command can gate install scripts:

  curl -s 'https://aur.archlinux.org/cgit/aur.git/plain/PKGBUILD?h=yay' | aurguard scan`,
	Args: cobra.MaximumNArgs(1),
	RunE: scanCommand,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func scanCommand(cmd *cobra.Command, args []string) error {
	var (
		content []byte
		err     error
	)
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading PKGBUILD: %w", err)
	}

	report := analyzer.AnalyzePKGBUILD(string(content))

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !report.Safe {
		return fmt.Errorf("PKGBUILD failed the safety scan (risk score %d)", report.RiskScore)
	}
	return nil
}
