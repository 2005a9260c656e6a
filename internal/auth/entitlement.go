package auth

import (
	"strings"

	"tickcom/portal/internal/model"
)

// Resolve returns the tool keys a user may see: the direct grants in their
// listed order, then any package-only additions, limited to keys the catalog
// knows about. An unknown package contributes nothing.
func Resolve(u model.UserRecord, packages model.PackageTable, catalog model.ToolCatalog) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(u.AllowedTools))

	add := func(key string) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if _, ok := catalog[key]; !ok {
			return
		}
		out = append(out, key)
	}

	for _, k := range u.AllowedTools {
		add(k)
	}
	if pkg := u.PackageName(); pkg != "" {
		for _, k := range packages[pkg] {
			add(k)
		}
	}
	return out
}

// ResolveTools is Resolve with catalog entries attached for display.
func ResolveTools(u model.UserRecord, packages model.PackageTable, catalog model.ToolCatalog) []model.ResolvedTool {
	keys := Resolve(u, packages, catalog)
	out := make([]model.ResolvedTool, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.ResolvedTool{Key: k, Tool: catalog[k]})
	}
	return out
}
