package habsite

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habplugin"
)

// rawFile is the on-disk shape of a single site file: a JSON
// object with set/append/prepend/unset top-level keys.
type rawFile struct {
	Set map[string]json.RawMessage `json:"set"`
	Append map[string]json.RawMessage `json:"append"`
	Prepend map[string]json.RawMessage `json:"prepend"`
	Unset []string `json:"unset"`
}

// layer is a parsed site file ready for merging.
type layer struct {
	path string
	set map[string]json.RawMessage
	appendM map[string]json.RawMessage
	prepend map[string]json.RawMessage
	unset map[string]bool
}

func readLayer(path string) (*layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &hab.SiteLoadError{Msg: fmt.Sprintf("site file not found: %s", path)}
		}
		return nil, &hab.SiteLoadError{Msg: fmt.Sprintf("reading site file %s: %v", path, err)}
	}

	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &hab.SiteLoadError{Msg: fmt.Sprintf("invalid JSON in site file %s: %v", path, err)}
	}

	unset := make(map[string]bool, len(raw.Unset))
	for _, name := range raw.Unset {
		unset[name] = true
	}

	return &layer{
		path: path,
		set: raw.Set,
		appendM: raw.Append,
		prepend: raw.Prepend,
		unset: unset,
	}, nil
}

// Load resolves site files (left-to-right precedence) into one effective
// Site. host, if non-nil, is used to run the
// hab.site.add_paths extension point after the initial merge.
func Load(paths []string, host *habplugin.Host) (*Site, error) {
	layers, err := loadLayers(paths)
	if err != nil {
		return nil, err
	}

	site, err := mergeLayers(layers)
	if err != nil {
		return nil, err
	}
	site.Paths = append(site.Paths, paths...)

	if host != nil {
		extra, err := runAddPaths(host, site)
		if err != nil {
			return nil, err
		}
		extra = dedupeAgainst(extra, site.Paths)
		if len(extra) > 0 {
			extraLayers, err := loadLayers(extra)
			if err != nil {
				return nil, err
			}
			// add_paths results are treated as left-most: they take precedence over the originally merged layers.
			merged, err := mergeLayers(append(extraLayers, layers...))
			if err != nil {
				return nil, err
			}
			merged.Paths = append(append([]string{}, extra...), site.Paths...)
			site = merged
		}
	}

	return site, nil
}

func loadLayers(paths []string) ([]*layer, error) {
	layers := make([]*layer, 0, len(paths))
	for _, p := range paths {
		l, err := readLayer(p)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func dedupeAgainst(candidates, existing []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p] = true
	}
	out := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// runAddPaths invokes the hab.site.add_paths entry point, if one is
// registered and not disabled, and returns any additional site file paths
// it reports. A missing or disabled hook is a no-op.
func runAddPaths(host *habplugin.Host, site *Site) ([]string, error) {
	target, ok := site.EntryPoints["hab.site.add_paths"]
	if !ok || target == nil {
		return nil, nil
	}

	siteJSON, err := json.Marshal(site)
	if err != nil {
		return nil, fmt.Errorf("marshaling site for add_paths hook: %w", err)
	}

	paths, err := host.AddPaths(*target, siteJSON)
	if err != nil {
		slog.Warn("hab.site.add_paths hook failed, ignoring", "module", *target, "error", err)
		return nil, nil
	}
	return paths, nil
}
