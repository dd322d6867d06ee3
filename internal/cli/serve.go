package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio",
	Long: `Runs the MCP server on stdin/stdout for use from an MCP client config:

  "command": "aurguard serve"

Diagnostics go to stderr; stdout carries only JSON-RPC responses.`,
	RunE: serveCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, deps, err := loadDeps()
	if err != nil {
		return err
	}

	srv, closeLog := newMCPServer(cfg, deps)
	defer closeLog()

	fmt.Fprintf(os.Stderr, "[aurguard] MCP server %s on stdio\n", Version)
	return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
}
