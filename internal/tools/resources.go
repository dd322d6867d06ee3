package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurguard/aurguard/internal/mcp"
)

const (
	mimeJSON = "application/json"
	mimeText = "text/plain"
)

func registerResources(s *mcp.Server, d Deps) {
	s.RegisterResource(mcp.ResourceDefinition{
		URI:         "aur://{package}/pkgbuild",
		Name:        "AUR PKGBUILD",
		MimeType:    mimeText,
		Description: "Raw PKGBUILD for an AUR package.",
	})
	s.RegisterResource(mcp.ResourceDefinition{
		URI:         "aur://{package}/info",
		Name:        "AUR package metadata",
		MimeType:    mimeJSON,
		Description: "RPC metadata for an AUR package.",
	})
	s.RegisterResource(mcp.ResourceDefinition{
		URI:         "archwiki://{page}",
		Name:        "Arch Wiki page",
		MimeType:    mimeText,
		Description: "Wikitext of an Arch Wiki page.",
	})
	s.RegisterResource(mcp.ResourceDefinition{
		URI:         "pacman://installed",
		Name:        "Installed packages",
		MimeType:    mimeJSON,
		Description: "All installed packages with versions.",
	})
	s.RegisterResource(mcp.ResourceDefinition{
		URI:         "pacman://orphans",
		Name:        "Orphan packages",
		MimeType:    mimeJSON,
		Description: "Installed packages no longer required by anything.",
	})
	s.RegisterResource(mcp.ResourceDefinition{
		URI:         "pacman://explicit",
		Name:        "Explicitly installed packages",
		MimeType:    mimeJSON,
		Description: "Packages installed by explicit user request.",
	})

	s.RegisterResourceScheme("aur", func(ctx context.Context, uri string) (string, string, error) {
		rest := strings.TrimPrefix(uri, "aur://")
		name, view, found := strings.Cut(rest, "/")
		if !found || name == "" {
			return "", "", fmt.Errorf("aur resource URI must be aur://<package>/{pkgbuild,info}: %s", uri)
		}
		switch view {
		case "pkgbuild":
			text, err := d.AUR.PKGBUILD(ctx, name)
			if err != nil {
				return "", "", err
			}
			return mimeText, text, nil
		case "info":
			pkg, err := d.AUR.Info(ctx, name)
			if err != nil {
				return "", "", err
			}
			text, err := jsonText(pkg)
			if err != nil {
				return "", "", err
			}
			return mimeJSON, text, nil
		default:
			return "", "", fmt.Errorf("unknown aur resource view %q (want pkgbuild or info)", view)
		}
	})

	s.RegisterResourceScheme("archwiki", func(ctx context.Context, uri string) (string, string, error) {
		title := strings.TrimPrefix(uri, "archwiki://")
		if title == "" {
			return "", "", fmt.Errorf("archwiki resource URI must name a page: %s", uri)
		}
		text, err := d.Wiki.Page(ctx, title)
		if err != nil {
			return "", "", err
		}
		return mimeText, text, nil
	})

	s.RegisterResourceScheme("pacman", func(ctx context.Context, uri string) (string, string, error) {
		var (
			list []string
			err  error
		)
		switch view := strings.TrimPrefix(uri, "pacman://"); view {
		case "installed":
			list, err = d.Pacman.Installed(ctx)
		case "orphans":
			list, err = d.Pacman.Orphans(ctx)
		case "explicit":
			list, err = d.Pacman.Explicit(ctx)
		default:
			return "", "", fmt.Errorf("unknown pacman resource %q (want installed, orphans, or explicit)", view)
		}
		if err != nil {
			return "", "", err
		}
		text, err := jsonText(map[string]any{"packages": list, "count": len(list)})
		if err != nil {
			return "", "", err
		}
		return mimeJSON, text, nil
	})
}
