// Package cli wires the aurguard commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurguard/aurguard/internal/aur"
	"github.com/aurguard/aurguard/internal/config"
	"github.com/aurguard/aurguard/internal/logger"
	"github.com/aurguard/aurguard/internal/mcp"
	"github.com/aurguard/aurguard/internal/mirrors"
	"github.com/aurguard/aurguard/internal/news"
	"github.com/aurguard/aurguard/internal/pacman"
	"github.com/aurguard/aurguard/internal/sysinfo"
	"github.com/aurguard/aurguard/internal/tools"
	"github.com/aurguard/aurguard/internal/wiki"
)

var (
	configPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "aurguard",
	Short: "aurguard - Arch Linux package intelligence with AUR safety analysis",
	Long: `aurguard exposes Arch Linux package operations to AI assistants over the
Model Context Protocol: AUR search and metadata, PKGBUILD retrieval, official
repository queries, Arch Wiki search, news, and mirror health.

Every AUR package can be audited before installation: the PKGBUILD is scanned
for dangerous patterns (curl|sh, fork bombs, wallet miners, exfiltration) and
the package metadata is scored for community trust.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML file (default: ~/.aurguard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to audit log file (default: ~/.aurguard/audit.jsonl)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadDeps builds the backend clients from configuration.
func loadDeps() (*config.Config, tools.Deps, error) {
	cfg, err := config.Load(configPath, logPath)
	if err != nil {
		return nil, tools.Deps{}, fmt.Errorf("loading config: %w", err)
	}
	timeout := cfg.RequestTimeout.Std()
	deps := tools.Deps{
		AUR:        aur.NewWithTimeout(cfg.AURBaseURL, timeout),
		Pacman:     pacman.New(),
		System:     sysinfo.New(),
		Wiki:       wiki.NewWithTimeout(cfg.WikiBaseURL, timeout),
		News:       news.NewWithTimeout(cfg.NewsFeedURL, timeout),
		Mirrors:    mirrors.NewCheckerWithTimeout(0, timeout),
		MirrorURLs: cfg.Mirrors,
		PacmanLog:  cfg.PacmanLog,
	}
	return cfg, deps, nil
}

// newMCPServer registers every tool, resource, and prompt, and attaches the
// JSONL audit logger. A logger failure degrades to running without audit
// rather than refusing to serve.
func newMCPServer(cfg *config.Config, deps tools.Deps) (*mcp.Server, func()) {
	srv := mcp.NewServer("aurguard", Version)
	tools.Register(srv, deps)

	lg, err := logger.New(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[aurguard] warning: audit log unavailable: %v\n", err)
		return srv, func() {}
	}
	srv.OnAudit(func(e mcp.AuditEntry) {
		_ = lg.Log(logger.Event{
			Timestamp:  e.Timestamp,
			Tool:       e.ToolName,
			Arguments:  e.Arguments,
			Outcome:    e.Outcome,
			Error:      e.Error,
			DurationMS: e.DurationMS,
		})
	})
	return srv, func() { _ = lg.Close() }
}
