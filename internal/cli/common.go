package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habalias"
	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/hab-tool/hab/internal/habprefs"
	"github.com/hab-tool/hab/internal/habrender"
	"github.com/hab-tool/hab/internal/pipeline"
)

// currentPlatform maps the host OS to the habplatform.Platform hab resolves
// against; hab always resolves for the platform it is running on.
func currentPlatform() (habplatform.Platform, error) {
	var name habplatform.Name
	switch runtime.GOOS {
	case "windows":
		name = habplatform.Windows
	case "darwin":
		name = habplatform.OSX
	default:
		name = habplatform.Linux
	}
	return habplatform.Default(name)
}

// sitePaths resolves the --site flag, falling back to HAB_PATHS split on the platform's list separator.
func sitePaths(platform habplatform.Platform) []string {
	if len(flags.Sites) > 0 {
		return flags.Sites
	}
	if v := os.Getenv("HAB_PATHS"); v != "" {
		return strings.Split(v, string(platform.ListSep()))
	}
	return nil
}

// resolveURIArg resolves a URI command argument, honoring the `-` shorthand
// for "the last saved URI", which requires prefs to be
// enabled.
func resolveURIArg(cmd *cobra.Command, uri string) (string, error) {
	if uri != "-" {
		return uri, nil
	}
	if !prefsEnabled(cmd, false) {
		return "", hab.NewErrorCode(hab.ExitURIUnresolved, "URI \"-\" requires --prefs to read the last saved URI", nil)
	}
	path, err := habprefs.Path()
	if err != nil {
		return "", hab.NewError("resolving prefs path", err)
	}
	p, err := habprefs.Load(path)
	if err != nil {
		return "", hab.NewError("loading prefs", err)
	}
	if p.LastURI == "" {
		return "", hab.NewErrorCode(hab.ExitURIUnresolved, "no last saved URI in prefs", nil)
	}
	return p.LastURI, nil
}

// resolve runs the full pipeline for uri using the process's current global
// flags, and saves the resolved URI to prefs when --save-prefs is set.
func resolve(ctx context.Context, cmd *cobra.Command, uri string) (*pipeline.Result, error) {
	platform, err := currentPlatform()
	if err != nil {
		return nil, hab.NewError("determining current platform", err)
	}

	resolvedURI, err := resolveURIArg(cmd, uri)
	if err != nil {
		return nil, err
	}

	result, err := pipeline.Resolve(ctx, pipeline.Options{
		SitePaths: sitePaths(platform),
		URI: resolvedURI,
		ExtraRequirements: flags.Requirements,
		Platform: platform,
		InheritedPATH: os.Getenv("PATH"),
	})
	if err != nil {
		return nil, err
	}

	if flags.SavePrefs && prefsEnabled(cmd, false) {
		if err := savePrefsURI(resolvedURI); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func savePrefsURI(uri string) error {
	path, err := habprefs.Path()
	if err != nil {
		return hab.NewError("resolving prefs path", err)
	}
	if err := habprefs.Save(path, habprefs.Prefs{LastURI: uri}); err != nil {
		return hab.NewError("saving prefs", err)
	}
	return nil
}

// reservedEnv adds the engine-produced HAB_URI/HAB_FREEZE variables to env,
// the way every renderer-facing command must.
func reservedEnv(env map[string]string, uri, freeze string) map[string]string {
	out := make(map[string]string, len(env)+2)
	for k, v := range env {
		out[k] = v
	}
	out[hab.EnvHabURI] = uri
	out[hab.EnvHabFreeze] = freeze
	return out
}

func errUnknownAlias(uri, alias string) error {
	return hab.NewErrorCode(hab.ExitURIUnresolved, fmt.Sprintf("%s: no alias named %q", uri, alias), nil)
}

// toRenderAliases converts composed aliases to the renderer's Alias shape,
// flattening each alias's scoped environment for platform.
func toRenderAliases(aliases map[string]habalias.Alias, platform habplatform.Name) map[string]habrender.Alias {
	out := make(map[string]habrender.Alias, len(aliases))
	for name, a := range aliases {
		out[name] = habrender.Alias{
			Name: a.Name,
			Cmd: a.Cmd,
			ScopedEnv: aliasScopedEnv(a, platform),
		}
	}
	return out
}
