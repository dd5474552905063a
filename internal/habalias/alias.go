// Package habalias implements the alias composer: it
// collects aliases from each selected distro in solve order, normalizes
// them, applies alias mods, and filters by verbosity.
package habalias

import (
	"log/slog"

	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habplatform"
)

// Distro is one selected distro contributing aliases and alias mods, in
// solve order.
type Distro struct {
	Name string
	Version string
	Aliases map[string][]habforest.AliasEntryRaw // platform -> ordered [name, spec] entries
	AliasMods map[string]habforest.AliasModJSON
}

// Alias is one fully composed, normalized alias entry ready for rendering.
type Alias struct {
	Name string
	Cmd habforest.CmdValue
	Environment *habforest.Operations
	DistroName string
	DistroVersion string
}

// Compose collects distros' aliases for platform, applies first-occurrence-
// wins across distros, then applies alias mods from configAliasMods (the
// FlatConfig's own mods) and each distro's own mods, config winning any
// conflict. If the minimum verbosity for target (or "global")
// exceeds activeVerbosity, every alias is dropped.
func Compose(distros []Distro, platform habplatform.Name, configAliasMods map[string]habforest.AliasModJSON, minVerbosity map[string]int, target string, activeVerbosity int) map[string]Alias {
	result := map[string]Alias{}
	seen := map[string]bool{}

	for _, d := range distros {
		entries := d.Aliases[string(platform)]
		for _, e := range entries {
			if e.Name == "" || seen[e.Name] {
				if seen[e.Name] {
					slog.Debug("alias already defined by an earlier distro, dropping duplicate", "alias", e.Name, "distro", d.Name, "version", d.Version)
				}
				continue
			}
			seen[e.Name] = true
			result[e.Name] = Alias{
				Name: e.Name,
				Cmd: e.Cmd,
				Environment: e.Environment,
				DistroName: d.Name,
				DistroVersion: d.Version,
			}
		}
	}

	for _, d := range distros {
		applyMods(result, d.AliasMods)
	}
	applyMods(result, configAliasMods) // config mods applied last, so they win conflicts

	if verbosityThreshold(minVerbosity, target) > activeVerbosity {
		return map[string]Alias{}
	}

	return result
}

// applyMods merges each named mod's environment into the matching alias's
// environment via mergeOperations, so a mod's values replace the alias's
// existing values for the same variable.
func applyMods(result map[string]Alias, mods map[string]habforest.AliasModJSON) {
	for name, mod := range mods {
		alias, ok := result[name]
		if !ok || mod.Environment == nil {
			continue
		}
		alias.Environment = mergeOperations(alias.Environment, mod.Environment)
		result[name] = alias
	}
}

// mergeOperations combines base then override: for set/prepend/append,
// override's value replaces base's for the same variable; unset lists are
// concatenated.
func mergeOperations(base, override *habforest.Operations) *habforest.Operations {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}
	merged := *base
	if override.OSSpecific || base.OSSpecific {
		// os_specific alias-mod environments are rare; fall back to treating
		// override as authoritative rather than guessing at a merge across
		// mismatched shapes.
		return override
	}
	merged.Unset = append(append([]string{}, base.Unset...), override.Unset...)
	merged.Set = mergeStringMaps(base.Set, override.Set)
	merged.Prepend = mergeStringMaps(base.Prepend, override.Prepend)
	merged.Append = mergeStringMaps(base.Append, override.Append)
	return &merged
}

func mergeStringMaps(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// verbosityThreshold resolves the active FlatConfig's minimum verbosity for
// target, falling back to "global", defaulting to 0 (always visible) if
// neither is set.
func verbosityThreshold(minVerbosity map[string]int, target string) int {
	if v, ok := minVerbosity[target]; ok {
		return v
	}
	if v, ok := minVerbosity["global"]; ok {
		return v
	}
	return 0
}
