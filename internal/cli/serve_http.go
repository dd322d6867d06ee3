package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurguard/aurguard/internal/httpapi"
)

var httpAddr string

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Serve the JSON-RPC and analyzer REST endpoints over HTTP",
	Long: `Runs the HTTP transport: POST /rpc accepts single JSON-RPC requests,
GET /healthz reports liveness, and POST /v1/analyze/{pkgbuild,metadata}
give direct access to the analyzers.`,
	RunE: serveHTTPCommand,
}

func init() {
	serveHTTPCmd.Flags().StringVar(&httpAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8787)")
	rootCmd.AddCommand(serveHTTPCmd)
}

func serveHTTPCommand(cmd *cobra.Command, args []string) error {
	cfg, deps, err := loadDeps()
	if err != nil {
		return err
	}

	srv, closeLog := newMCPServer(cfg, deps)
	defer closeLog()

	addr := httpAddr
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	httpSrv := httpapi.NewServer(addr, srv)
	fmt.Fprintf(os.Stderr, "[aurguard] HTTP server %s listening on %s\n", Version, addr)
	return httpSrv.ListenAndServe()
}
