// Package pipeline is the central orchestrator: it coordinates site
// loading, forest loading, URI resolution, inheritance reduction,
// requirement solving, and environment/alias composition into one
// resolved result a CLI command or freeze encoder can act on.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habalias"
	"github.com/hab-tool/hab/internal/habenv"
	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habmarker"
	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/hab-tool/hab/internal/habplugin"
	"github.com/hab-tool/hab/internal/habresolve"
	"github.com/hab-tool/hab/internal/habsite"
	"github.com/hab-tool/hab/internal/habsolve"
)

// Options configures one end-to-end resolution.
type Options struct {
	SitePaths []string
	URI string
	ExtraRequirements []string // -r/--requirement flag values
	Platform habplatform.Platform
	InheritedPATH string
	Host *habplugin.Host // optional, enables site.entry_points hooks
	ForestConcurrency int
}

// Result is everything a command needs to render, dump, or freeze a
// resolved environment.
type Result struct {
	Site *habsite.Site
	Flat *habresolve.FlatConfig
	Selected []habsolve.Selected
	Env map[string]string
	Aliases map[string]habalias.Alias
}

// Resolve runs the full pipeline for one URI.
func Resolve(ctx context.Context, opts Options) (*Result, error) {
	site, err := habsite.Load(opts.SitePaths, opts.Host)
	if err != nil {
		return nil, err
	}

	ignored := make(map[string]bool, len(site.IgnoredDistros))
	for _, v := range site.IgnoredDistros {
		ignored[v] = true
	}

	cf, df, err := habforest.Load(ctx, habforest.LoadOptions{
		ConfigGlobs: site.ConfigPaths,
		DistroGlobs: site.DistroPaths,
		IgnoredDistros: ignored,
		Concurrency: opts.ForestConcurrency,
	})
	if err != nil {
		return nil, err
	}

	matched, matchedURI, err := habresolve.Resolve(cf, opts.URI)
	if err != nil {
		return nil, err
	}
	flat := habresolve.Reduce(cf, matched, matchedURI)

	roots, err := buildRequirements(flat, opts.ExtraRequirements)
	if err != nil {
		return nil, err
	}

	hostEnv := habmarker.HostEnv(opts.Platform.Name(), "")
	stubSet, stubUnset := stubSets(flat.StubDistros)
	selected, err := habsolve.Solve(roots, habsolve.Options{
		Source: habsolve.NewForestSource(df),
		Env: hostEnv,
		Prereleases: site.Prereleases,
		StubSet: stubSet,
		StubUnset: stubUnset,
	})
	if err != nil {
		return nil, err
	}

	env, err := composeEnv(flat, selected, opts.Platform, opts.InheritedPATH)
	if err != nil {
		return nil, err
	}

	aliases := composeAliases(flat, selected, opts.Platform)

	return &Result{Site: site, Flat: flat, Selected: selected, Env: env, Aliases: aliases}, nil
}

// buildRequirements parses the FlatConfig's own distro list plus any
// extra -r/--requirement strings into solver roots. Extra requirements are
// appended last so their specifiers/markers narrow rather than replace the
// config's own (the solver accumulates specifiers per name regardless of
// order).
func buildRequirements(flat *habresolve.FlatConfig, extra []string) ([]habsolve.Requirement, error) {
	roots := make([]habsolve.Requirement, 0, len(flat.Distros)+len(extra))
	for _, d := range flat.Distros {
		req, err := habsolve.ParseRequirement(d)
		if err != nil {
			return nil, &hab.InvalidRequirementError{Msg: fmt.Sprintf("config %s: %v", flat.URI, err)}
		}
		roots = append(roots, req)
	}
	for _, d := range extra {
		req, err := habsolve.ParseRequirement(d)
		if err != nil {
			return nil, &hab.InvalidRequirementError{Msg: fmt.Sprintf("-r %q: %v", d, err)}
		}
		roots = append(roots, req)
	}
	return roots, nil
}

func stubSets(sd *habforest.StubDistros) (map[string]bool, map[string]bool) {
	set := map[string]bool{}
	unset := map[string]bool{}
	if sd == nil {
		return set, unset
	}
	for _, name := range sd.Set {
		set[name] = true
	}
	for _, name := range sd.Unset {
		unset[name] = true
	}
	return set, unset
}

// composeEnv builds the environment layer list in solve order and composes them.
func composeEnv(flat *habresolve.FlatConfig, selected []habsolve.Selected, platform habplatform.Platform, inheritedPATH string) (map[string]string, error) {
	layers := make([]habenv.Layer, 0, len(selected)+1)
	if flat.Environment != nil {
		layers = append(layers, habenv.Layer{Ops: flat.Environment, RelativeRoot: filepath.Dir(flat.SourcePath)})
	}
	for _, s := range selected {
		if s.Stub || s.Node == nil || s.Node.Environment == nil {
			continue
		}
		layers = append(layers, habenv.Layer{Ops: s.Node.Environment, RelativeRoot: s.Node.Dir})
	}
	return habenv.Compose(layers, platform, flat.Variables, inheritedPATH)
}

// composeAliases builds the habalias.Distro contributor list in solve
// order and composes the final alias map.
func composeAliases(flat *habresolve.FlatConfig, selected []habsolve.Selected, platform habplatform.Platform) map[string]habalias.Alias {
	distros := make([]habalias.Distro, 0, len(selected))
	for _, s := range selected {
		if s.Stub || s.Node == nil {
			continue
		}
		distros = append(distros, habalias.Distro{
			Name: s.Node.Name,
			Version: s.Version,
			Aliases: s.Node.Aliases,
			AliasMods: s.Node.AliasMods,
		})
	}

	target := "hab"
	activeVerbosity := 0
	result := habalias.Compose(distros, platform.Name(), flat.AliasMods, flat.MinVerbosity, target, activeVerbosity)
	if len(result) == 0 && len(distros) > 0 {
		slog.Debug("alias composition dropped every alias", "uri", flat.URI, "target", target)
	}
	return result
}
