package tools

import (
	"context"
	"fmt"

	"github.com/aurguard/aurguard/internal/mcp"
)

func registerPrompts(s *mcp.Server) {
	s.RegisterPrompt(mcp.PromptDefinition{
		Name:        "audit_aur_package",
		Description: "Walk through a full security audit of an AUR package before installing it.",
		Arguments: []mcp.PromptArgument{
			{Name: "package", Description: "AUR package name to audit", Required: true},
		},
	}, func(_ context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
		name := args["package"]
		if name == "" {
			return nil, fmt.Errorf("missing required argument: package")
		}
		text := fmt.Sprintf(`Audit the AUR package %q before installation:

1. Call audit_aur_package to get the combined risk tier.
2. If the tier is not LOW RISK, call get_pkgbuild and read the PKGBUILD
   yourself, paying attention to every finding the safety report lists.
3. Check analyze_package_metadata_risk for maintainer and voting history.
4. Summarize: risk tier, red flags, and whether installation is advisable.

Do not recommend installing a package whose report says DO NOT INSTALL.`, name)
		return &mcp.GetPromptResult{
			Description: "AUR package security audit",
			Messages: []mcp.PromptMessage{{
				Role:    "user",
				Content: mcp.ContentItem{Type: "text", Text: text},
			}},
		}, nil
	})

	s.RegisterPrompt(mcp.PromptDefinition{
		Name:        "troubleshoot_issue",
		Description: "Diagnose an Arch Linux problem using the wiki, news, and package history.",
		Arguments: []mcp.PromptArgument{
			{Name: "issue", Description: "Description of the problem", Required: true},
		},
	}, func(_ context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
		issue := args["issue"]
		if issue == "" {
			return nil, fmt.Errorf("missing required argument: issue")
		}
		text := fmt.Sprintf(`Troubleshoot this Arch Linux issue: %s

Work through it step by step:

1. Call get_arch_news; breaking changes are announced before they ship.
2. Call search_archwiki for the affected component and read the top hit.
3. If a package is suspected, call query_package_history to see when it
   last changed, and find_package_owner for any failing file paths.
4. Propose the least invasive fix first and say what to check afterwards.`, issue)
		return &mcp.GetPromptResult{
			Description: "Arch Linux troubleshooting session",
			Messages: []mcp.PromptMessage{{
				Role:    "user",
				Content: mcp.ContentItem{Type: "text", Text: text},
			}},
		}, nil
	})
}
