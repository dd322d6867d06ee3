// Package tools binds the AUR, pacman, wiki, news, and mirror backends to
// the MCP server: tool handlers, resource schemes, and prompt templates.
// Handlers return JSON (or raw text for PKGBUILDs); backend failures surface
// as tool errors, never as protocol errors.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aurguard/aurguard/internal/analyzer"
	"github.com/aurguard/aurguard/internal/aur"
	"github.com/aurguard/aurguard/internal/mcp"
	"github.com/aurguard/aurguard/internal/mirrors"
	"github.com/aurguard/aurguard/internal/news"
	"github.com/aurguard/aurguard/internal/pacman"
	"github.com/aurguard/aurguard/internal/pkglog"
	"github.com/aurguard/aurguard/internal/sysinfo"
	"github.com/aurguard/aurguard/internal/wiki"
)

// Deps carries the backends the tool handlers call into.
type Deps struct {
	AUR     *aur.Client
	Pacman  *pacman.Manager
	System  *sysinfo.Collector
	Wiki    *wiki.Client
	News    *news.Client
	Mirrors *mirrors.Checker

	// MirrorURLs are probed when check_mirror_status gets no explicit list.
	MirrorURLs []string
	// PacmanLog is the path read by query_package_history.
	PacmanLog string

	// IsArch gates mutating operations; nil means pacman.IsArch.
	IsArch func() bool
	// DetectHelper locates an AUR helper binary; nil means
	// pacman.DetectAURHelper.
	DetectHelper func() string
}

// Register wires every tool, resource scheme, and prompt into the server.
func Register(s *mcp.Server, d Deps) {
	if d.IsArch == nil {
		d.IsArch = pacman.IsArch
	}
	if d.DetectHelper == nil {
		d.DetectHelper = pacman.DetectAURHelper
	}
	registerTools(s, d)
	registerResources(s, d)
	registerPrompts(s)
}

func registerTools(s *mcp.Server, d Deps) {
	s.RegisterTool(mcp.ToolDefinition{
		Name:        "search_aur",
		Description: "Search the AUR for packages by name or description.",
		InputSchema: schema(`{"type":"object","properties":{"query":{"type":"string"},"limit":{"type":"integer"},"sort_by":{"type":"string","enum":["relevance","votes","popularity","modified"]}},"required":["query"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		query, ok := argString(args, "query")
		if !ok {
			return "", fmt.Errorf("missing required argument: query")
		}
		limit := argInt(args, "limit", 10)
		sortBy, _ := argString(args, "sort_by")
		pkgs, err := d.AUR.Search(ctx, query, limit, sortBy)
		if err != nil {
			return "", err
		}
		return jsonText(pkgs)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "get_aur_info",
		Description: "Get detailed AUR metadata for one package.",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"}},"required":["package"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		pkg, err := d.AUR.Info(ctx, name)
		if err != nil {
			return "", err
		}
		return jsonText(pkg)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "get_pkgbuild",
		Description: "Fetch the raw PKGBUILD for an AUR package. Review it before installing.",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"}},"required":["package"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		return d.AUR.PKGBUILD(ctx, name)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "analyze_pkgbuild_safety",
		Description: "Scan PKGBUILD text for dangerous patterns and score the risk. Pass either pkgbuild_content or a package name to fetch from the AUR.",
		InputSchema: schema(`{"type":"object","properties":{"pkgbuild_content":{"type":"string"},"package":{"type":"string"}}}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		content, ok := argString(args, "pkgbuild_content")
		if !ok {
			name, nameOK := argString(args, "package")
			if !nameOK {
				return "", fmt.Errorf("pass pkgbuild_content or package")
			}
			fetched, err := d.AUR.PKGBUILD(ctx, name)
			if err != nil {
				return "", err
			}
			content = fetched
		}
		report := analyzer.AnalyzePKGBUILD(content)
		return jsonText(report)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "analyze_package_metadata_risk",
		Description: "Score how trustworthy an AUR package looks from its metadata (votes, maintainer, age).",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"}},"required":["package"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		pkg, err := d.AUR.Info(ctx, name)
		if err != nil {
			return "", err
		}
		report := analyzer.AnalyzeMetadata(pkg.Meta())
		return jsonText(report)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "audit_aur_package",
		Description: "Run the full audit for an AUR package: metadata trust plus PKGBUILD safety, combined into a risk tier.",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"}},"required":["package"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		report, err := d.AUR.FetchAudit(ctx, name)
		if err != nil {
			return "", err
		}
		return jsonText(report)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "search_archwiki",
		Description: "Search the Arch Wiki.",
		InputSchema: schema(`{"type":"object","properties":{"query":{"type":"string"},"limit":{"type":"integer"}},"required":["query"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		query, ok := argString(args, "query")
		if !ok {
			return "", fmt.Errorf("missing required argument: query")
		}
		results, err := d.Wiki.Search(ctx, query, argInt(args, "limit", 5))
		if err != nil {
			return "", err
		}
		return jsonText(results)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "get_official_package_info",
		Description: "Look up a package in the official repositories (pacman -Si).",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"}},"required":["package"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		info, err := d.Pacman.Info(ctx, name)
		if err != nil {
			return "", err
		}
		return jsonText(info)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "check_updates_dry_run",
		Description: "List pending updates without installing anything (checkupdates).",
		InputSchema: schema(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, _ map[string]any) (string, error) {
		updates, err := d.Pacman.CheckUpdates(ctx)
		if err != nil {
			return "", err
		}
		if len(updates) == 0 {
			return jsonText(map[string]any{"updates": []pacman.Update{}, "message": "system is up to date"})
		}
		return jsonText(map[string]any{"updates": updates, "count": len(updates)})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "list_orphan_packages",
		Description: "List installed packages no longer required by anything (pacman -Qdtq).",
		InputSchema: schema(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, _ map[string]any) (string, error) {
		orphans, err := d.Pacman.Orphans(ctx)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"orphans": orphans, "count": len(orphans)})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "remove_package",
		Description: "Remove installed packages via pacman. Requires confirm=true; set cascade to also remove unneeded dependencies.",
		InputSchema: schema(`{"type":"object","properties":{"packages":{"type":"array","items":{"type":"string"}},"cascade":{"type":"boolean"},"force":{"type":"boolean"},"confirm":{"type":"boolean"}},"required":["packages","confirm"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		names := argStrings(args, "packages")
		if len(names) == 0 {
			return "", fmt.Errorf("missing required argument: packages")
		}
		if !argBool(args, "confirm") {
			return "", fmt.Errorf("refusing to remove %s: set confirm=true after reviewing what will be removed", strings.Join(names, ", "))
		}
		if !d.IsArch() {
			return "", fmt.Errorf("package removal only runs on Arch Linux systems")
		}
		out, err := d.Pacman.Remove(ctx, names, pacman.RemoveOptions{
			Cascade: argBool(args, "cascade"),
			Force:   argBool(args, "force"),
		})
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"removed": names, "output": out})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "find_package_owner",
		Description: "Find which installed package owns a file (pacman -Qo).",
		InputSchema: schema(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		path, ok := argString(args, "path")
		if !ok {
			return "", fmt.Errorf("missing required argument: path")
		}
		owner, err := d.Pacman.Owner(ctx, path)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]string{"path": path, "owner": owner})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "query_package_history",
		Description: "Query pacman.log: per-package history (default), all transactions, failed transactions, database syncs, or when a package was first installed.",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"},"query":{"type":"string","enum":["package","all","failures","sync","installed"]},"limit":{"type":"integer"}}}`),
	}, func(_ context.Context, args map[string]any) (string, error) {
		query, _ := argString(args, "query")
		if query == "" {
			query = "package"
		}
		name, hasName := argString(args, "package")
		if (query == "package" || query == "installed") && !hasName {
			return "", fmt.Errorf("query %q requires a package argument", query)
		}
		limit := argInt(args, "limit", 20)

		f, err := os.Open(d.PacmanLog)
		if err != nil {
			return "", fmt.Errorf("opening pacman log: %w", err)
		}
		defer f.Close()

		switch query {
		case "package":
			entries, err := pkglog.History(f, name, limit)
			if err != nil {
				return "", err
			}
			return jsonText(map[string]any{"query": query, "package": name, "history": entries})
		case "all":
			entries, err := pkglog.History(f, "", limit)
			if err != nil {
				return "", err
			}
			return jsonText(map[string]any{"query": query, "history": entries})
		case "failures":
			entries, err := pkglog.FailedTransactions(f, limit)
			if err != nil {
				return "", err
			}
			return jsonText(map[string]any{"query": query, "failures": entries, "count": len(entries)})
		case "sync":
			entries, err := pkglog.SyncHistory(f, limit)
			if err != nil {
				return "", err
			}
			return jsonText(map[string]any{"query": query, "syncs": entries, "count": len(entries)})
		case "installed":
			entry, err := pkglog.WhenInstalled(f, name)
			if err != nil {
				return "", err
			}
			return jsonText(map[string]any{"query": query, "package": name, "installed": entry})
		default:
			return "", fmt.Errorf("unknown query %q: use package, all, failures, sync, or installed", query)
		}
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "get_arch_news",
		Description: "Fetch recent Arch Linux news. Read before large upgrades.",
		InputSchema: schema(`{"type":"object","properties":{"limit":{"type":"integer"}}}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		items, err := d.News.Fetch(ctx, argInt(args, "limit", 5))
		if err != nil {
			return "", err
		}
		return jsonText(items)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "install_package_secure",
		Description: "Install a package after security checks. Official repositories are preferred; AUR packages are audited first (metadata trust plus PKGBUILD safety) and blocked on a HIGH RISK verdict. Requires confirm=true and an AUR helper (paru or yay) for AUR installs.",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"},"confirm":{"type":"boolean"}},"required":["package","confirm"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		if !argBool(args, "confirm") {
			return "", fmt.Errorf("refusing to install %s: set confirm=true after reviewing the package", name)
		}
		if !d.IsArch() {
			return "", fmt.Errorf("package installation only runs on Arch Linux systems")
		}

		// Official repositories first.
		if info, err := d.Pacman.Info(ctx, name); err == nil {
			out, err := d.Pacman.Install(ctx, []string{name})
			if err != nil {
				return "", err
			}
			return jsonText(map[string]any{
				"installed": true,
				"source":    "official",
				"package":   info.Name,
				"version":   info.Version,
				"output":    out,
			})
		}

		// AUR fallback: audit before installing, block high-risk packages.
		report, err := d.AUR.FetchAudit(ctx, name)
		if err != nil {
			return "", fmt.Errorf("package %q not found in official repositories and AUR audit failed: %w", name, err)
		}
		if report.RiskTier == analyzer.TierHighRisk {
			return jsonText(map[string]any{
				"installed": false,
				"blocked":   true,
				"reason":    "security audit returned " + report.RiskTier,
				"audit":     report,
			})
		}

		helper := d.DetectHelper()
		out, err := d.Pacman.InstallAUR(ctx, helper, name)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{
			"installed": true,
			"source":    "aur",
			"helper":    helper,
			"audit":     report,
			"output":    out,
		})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "verify_package_integrity",
		Description: "Verify the on-disk files of an installed package (pacman -Qk). Set thorough=true for a full attribute check (-Qkk).",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"},"thorough":{"type":"boolean"}},"required":["package"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		report, err := d.Pacman.Verify(ctx, name, argBool(args, "thorough"))
		if err != nil {
			return "", err
		}
		return jsonText(map[string]string{"package": name, "report": report})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "list_package_groups",
		Description: "List package groups available in the sync databases (pacman -Sg).",
		InputSchema: schema(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, _ map[string]any) (string, error) {
		groups, err := d.Pacman.Groups(ctx)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"groups": groups, "count": len(groups)})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "list_group_packages",
		Description: "List the packages belonging to one group, e.g. base-devel (pacman -Sg <group>).",
		InputSchema: schema(`{"type":"object","properties":{"group":{"type":"string"}},"required":["group"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		group, ok := argString(args, "group")
		if !ok {
			return "", fmt.Errorf("missing required argument: group")
		}
		pkgs, err := d.Pacman.GroupPackages(ctx, group)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"group": group, "packages": pkgs, "count": len(pkgs)})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "list_package_files",
		Description: "List files owned by an installed package (pacman -Ql), optionally filtered by a pattern.",
		InputSchema: schema(`{"type":"object","properties":{"package":{"type":"string"},"pattern":{"type":"string"}},"required":["package"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		name, ok := argString(args, "package")
		if !ok {
			return "", fmt.Errorf("missing required argument: package")
		}
		pattern, _ := argString(args, "pattern")
		files, err := d.Pacman.Files(ctx, name, pattern)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"package": name, "files": files, "count": len(files)})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "search_package_files",
		Description: "Search the repository file database for packages shipping a file (pacman -F). Requires a synced file database.",
		InputSchema: schema(`{"type":"object","properties":{"pattern":{"type":"string"}},"required":["pattern"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		pattern, ok := argString(args, "pattern")
		if !ok {
			return "", fmt.Errorf("missing required argument: pattern")
		}
		matches, err := d.Pacman.SearchFiles(ctx, pattern)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"pattern": pattern, "matches": matches, "count": len(matches)})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "get_system_info",
		Description: "Report kernel, architecture, hostname, uptime, and memory statistics.",
		InputSchema: schema(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, _ map[string]any) (string, error) {
		info, err := d.System.SystemInfo(ctx)
		if err != nil {
			return "", err
		}
		return jsonText(info)
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "check_disk_space",
		Description: "Report disk usage for root, home, var, and the pacman cache; flags filesystems above 90%.",
		InputSchema: schema(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, _ map[string]any) (string, error) {
		usages, err := d.System.DiskSpace(ctx)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"filesystems": usages})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "check_failed_services",
		Description: "List failed systemd units.",
		InputSchema: schema(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, _ map[string]any) (string, error) {
		units, err := d.System.FailedServices(ctx)
		if err != nil {
			return "", err
		}
		return jsonText(map[string]any{"failed_units": units, "count": len(units)})
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "get_boot_logs",
		Description: "Fetch the tail of the current boot's journal (journalctl -b).",
		InputSchema: schema(`{"type":"object","properties":{"lines":{"type":"integer"}}}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return d.System.BootLogs(ctx, argInt(args, "lines", 100))
	})

	s.RegisterTool(mcp.ToolDefinition{
		Name:        "check_mirror_status",
		Description: "Probe pacman mirrors for reachability and latency.",
		InputSchema: schema(`{"type":"object","properties":{"mirrors":{"type":"array","items":{"type":"string"}}}}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		urls := argStrings(args, "mirrors")
		if len(urls) == 0 {
			urls = d.MirrorURLs
		}
		if len(urls) == 0 {
			return "", fmt.Errorf("no mirrors configured")
		}
		return jsonText(d.Mirrors.Check(ctx, urls))
	})
}

func schema(s string) json.RawMessage { return json.RawMessage(s) }

func jsonText(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// argInt tolerates the float64 that encoding/json produces for numbers.
func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func argStrings(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
