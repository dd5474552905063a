package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habfreeze"
	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/hab-tool/hab/internal/habsite"
)

var (
	dumpType string
	dumpFormat string
	dumpUnfreeze string
)

var dumpCmd = &cobra.Command{
	Use: "dump <URI>",
	Short: "Print a resolved config, site, freeze, or all-URIs summary",
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpType, "type", "t", "cfg", "what to dump: cfg|site|freeze|all-uris")
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format: freeze|json|text")
	dumpCmd.Flags().StringVar(&dumpUnfreeze, "unfreeze", "", "decode a freeze string (or @PATH) instead of resolving")
	rootCmd.AddCommand(dumpCmd)
}

var (
	dumpKeyStyle = lipgloss.NewStyle().Bold(true)
)

func runDump(cmd *cobra.Command, args []string) error {
	if dumpUnfreeze != "" {
		return runUnfreeze(cmd)
	}

	platform, err := currentPlatform()
	if err != nil {
		return hab.NewError("determining current platform", err)
	}

	switch dumpType {
	case "all-uris":
		return dumpAllURIs(cmd, platform)
	case "site":
		return dumpSite(cmd, platform)
	default:
		if len(args) != 1 {
			return hab.NewErrorCode(hab.ExitError, "dump --type "+dumpType+" requires a URI argument", nil)
		}
		return dumpURI(cmd, platform, args[0])
	}
}

func dumpURI(cmd *cobra.Command, platform habplatform.Platform, uri string) error {
	result, err := resolve(cmd.Context(), cmd, uri)
	if err != nil {
		return err
	}

	switch dumpType {
	case "freeze":
		encoded, err := encodeFreeze(cmd, platform, uri, result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), encoded)
		return nil
	default:
		return writeDumpValue(cmd, result.Flat, result.Site.Colorize)
	}
}

func dumpSite(cmd *cobra.Command, platform habplatform.Platform) error {
	site, err := habsite.Load(sitePaths(platform), nil)
	if err != nil {
		return hab.NewError("loading site", err)
	}
	return writeDumpValue(cmd, site, site.Colorize)
}

// dumpAllURIs resolves every non-placeholder URI in the user forest,
// reporting either its FlatConfig or an "Error resolving …" string for
// any URI that fails instead of aborting the whole dump.
func dumpAllURIs(cmd *cobra.Command, platform habplatform.Platform) error {
	site, err := habsite.Load(sitePaths(platform), nil)
	if err != nil {
		return hab.NewError("loading site", err)
	}
	cf, _, err := habforest.Load(cmd.Context(), habforest.LoadOptions{
		ConfigGlobs: site.ConfigPaths,
		DistroGlobs: site.DistroPaths,
	})
	if err != nil {
		return hab.NewError("loading forest", err)
	}

	uris := make([]string, 0, len(cf.User))
	for uri := range cf.User {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	out := make(map[string]interface{}, len(uris))
	for _, uri := range uris {
		result, err := resolve(cmd.Context(), cmd, uri)
		if err != nil {
			out[uri] = fmt.Sprintf("Error resolving %s: %s", uri, err)
			continue
		}
		out[uri] = result.Flat
	}
	return writeDumpValue(cmd, out, site.Colorize)
}

func runUnfreeze(cmd *cobra.Command) error {
	platform, err := currentPlatform()
	if err != nil {
		return hab.NewError("determining current platform", err)
	}
	encoded, err := readUnfreezeSource(dumpUnfreeze)
	if err != nil {
		return err
	}

	site, err := habsite.Load(sitePaths(platform), nil)
	if err != nil {
		return hab.NewError("loading site", err)
	}

	f, err := habfreeze.Decode(encoded, habfreeze.PathMaps(site.PlatformPathMaps), platform.Name())
	if err != nil {
		return hab.NewErrorCode(hab.ExitFreezeDecode, "decoding freeze", err)
	}
	return writeDumpValue(cmd, f, site.Colorize)
}

// readUnfreezeSource treats a leading "@" as a file path, else the literal
// freeze string, matching --unfreeze <STR|PATH>.
func readUnfreezeSource(arg string) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	raw, err := os.ReadFile(arg[1:])
	if err != nil {
		return "", hab.NewError("reading freeze file", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func writeDumpValue(cmd *cobra.Command, v interface{}, colorize bool) error {
	switch dumpFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", " ")
		return enc.Encode(v)
	default:
		return writeDumpText(cmd, v, colorize)
	}
}

func writeDumpText(cmd *cobra.Command, v interface{}, colorize bool) error {
	raw, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		return hab.NewError("formatting dump output", err)
	}
	text := string(raw)
	if colorize {
		text = dumpKeyStyle.Render(text)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
