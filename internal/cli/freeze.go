package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habalias"
	"github.com/hab-tool/hab/internal/habfreeze"
	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/hab-tool/hab/internal/pipeline"
)

// encodeFreeze builds the full cross-platform freeze for requestedURI and
// encodes it for platform, the value commands place in HAB_FREEZE.
func encodeFreeze(cmd *cobra.Command, platform habplatform.Platform, requestedURI string, result *pipeline.Result) (string, error) {
	f, err := buildFreeze(cmd.Context(), sitePaths(platform), platform, requestedURI, result)
	if err != nil {
		return "", hab.NewError("building freeze", err)
	}
	encoded, err := habfreeze.Encode(f, habfreeze.PathMaps(result.Site.PlatformPathMaps), platform.Name())
	if err != nil {
		return "", hab.NewError("encoding freeze", err)
	}
	return encoded, nil
}

// buildFreeze re-resolves requestedURI for every platform the site supports
// (or every platform hab knows, if the site does not restrict) and
// assembles the per-platform Freeze structure.
// primary is the already-resolved result for currentPlatform, reused
// instead of resolving it twice.
func buildFreeze(ctx context.Context, sites []string, currentPlatform habplatform.Platform, requestedURI string, primary *pipeline.Result) (*habfreeze.Freeze, error) {
	platforms := primary.Site.Platforms
	if len(platforms) == 0 {
		platforms = habplatform.All
	}

	f := &habfreeze.Freeze{
		Version: habfreeze.FormatVersion,
		URI: primary.Flat.URI,
		Name: primary.Flat.Name,
		Environment: map[string]map[string]string{},
		Aliases: map[string]map[string]habfreeze.AliasFrozen{},
	}
	for _, s := range primary.Selected {
		if s.Stub {
			continue
		}
		f.Versions = append(f.Versions, [2]string{s.Name, s.Version})
	}

	for _, name := range platforms {
		result := primary
		if name != currentPlatform.Name() {
			platform, err := habplatform.Default(name)
			if err != nil {
				continue
			}
			r, err := pipeline.Resolve(ctx, pipeline.Options{
				SitePaths: sites,
				URI: requestedURI,
				ExtraRequirements: flags.Requirements,
				Platform: platform,
				InheritedPATH: "",
			})
			if err != nil {
				return nil, fmt.Errorf("resolving %s for platform %s: %w", requestedURI, name, err)
			}
			result = r
		}

		f.Environment[string(name)] = result.Env
		f.Aliases[string(name)] = frozenAliases(result.Aliases)
	}

	return f, nil
}

func frozenAliases(aliases map[string]habalias.Alias) map[string]habfreeze.AliasFrozen {
	out := make(map[string]habfreeze.AliasFrozen, len(aliases))
	for name, a := range aliases {
		out[name] = habfreeze.AliasFrozen{
			Cmd: a.Cmd,
			Environment: a.Environment,
			DistroName: a.DistroName,
			DistroVersion: a.DistroVersion,
		}
	}
	return out
}
