package habsite

import (
	"encoding/json"
	"fmt"

	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
)

// mergeLayers merges site file layers left-to-right into one Site,
// following merge rules. Scalar/mapping settings are
// left-most-wins; list-valued settings honor prepend/append nesting.
func mergeLayers(layers []*layer) (*Site, error) {
	site := &Site{
		PlatformPathMaps: map[string]map[habplatform.Name]string{},
		EntryPoints: map[string]*string{},
	}

	if err := mergeScalars(layers, site); err != nil {
		return nil, err
	}
	if err := mergePlatformPathMaps(layers, site); err != nil {
		return nil, err
	}
	if err := mergeEntryPoints(layers, site); err != nil {
		return nil, err
	}

	for _, name := range listSettingNames {
		values, err := mergeListSetting(layers, name)
		if err != nil {
			return nil, err
		}
		switch name {
		case "config_paths":
			site.ConfigPaths = values
		case "distro_paths":
			site.DistroPaths = values
		case "platforms":
			site.Platforms = toPlatformNames(values)
		case "ignored_distros":
			site.IgnoredDistros = values
		}
	}

	return site, nil
}

// mergeScalars drives the scalar half of site merging through koanf's
// layered-overlay idiom: each layer contributes a flat map of only the keys
// it explicitly sets, and the first layer to set or unset a key wins.
// koanf itself lets a later load overwrite a key, so left-most-wins comes
// from the written set, which leaves an already-written key out of every
// later layer's map.
func mergeScalars(layers []*layer, site *Site) error {
	k := koanf.New(".")
	written := map[string]bool{}

	for _, l := range layers {
		flat := map[string]any{}
		for _, name := range scalarSettingNames {
			if written[name] {
				continue
			}
			if l.unset[name] {
				written[name] = true
				continue
			}
			raw, ok := l.set[name]
			if !ok {
				continue
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("site %s: invalid value for %q: %w", l.path, name, err)
			}
			flat[name] = v
			written[name] = true
		}
		if len(flat) > 0 {
			if err := k.Load(confmap.Provider(flat, "."), nil); err != nil {
				return fmt.Errorf("site %s: %w", l.path, err)
			}
		}
	}

	site.Prereleases = k.Bool("prereleases")
	site.Colorize = k.Bool("colorize")
	site.PrefsDefault = k.String("prefs_default")
	site.PrefsURITimeout = k.Int("prefs_uri_timeout")
	site.SiteCacheFileTemplate = k.String("site_cache_file_template")
	if k.Exists("freeze_version") {
		site.FreezeVersion = k.Int("freeze_version")
		site.HasFreezeVersion = true
	}
	return nil
}

// mergePlatformPathMaps applies the "first file containing a given map key
// keeps it" rule per inner mapping name.
func mergePlatformPathMaps(layers []*layer, site *Site) error {
	seen := map[string]bool{}
	for _, l := range layers {
		raw, ok := l.set["platform_path_maps"]
		if !ok {
			continue
		}
		var m map[string]map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("site %s: invalid platform_path_maps: %w", l.path, err)
		}
		for name, byPlatform := range m {
			if seen[name] {
				continue
			}
			seen[name] = true
			converted := make(map[habplatform.Name]string, len(byPlatform))
			for plat, dir := range byPlatform {
				converted[habplatform.Name(plat)] = dir
			}
			site.PlatformPathMaps[name] = converted
		}
	}
	return nil
}

// mergeEntryPoints applies left-most-wins per entry-point name, honoring
// JSON null as an explicit disable.
func mergeEntryPoints(layers []*layer, site *Site) error {
	seen := map[string]bool{}
	for _, l := range layers {
		raw, ok := l.set["entry_points"]
		if !ok {
			continue
		}
		var m map[string]*string
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("site %s: invalid entry_points: %w", l.path, err)
		}
		for name, target := range m {
			if seen[name] {
				continue
			}
			seen[name] = true
			site.EntryPoints[name] = target
		}
	}
	return nil
}

// mergeListSetting implements the ordered prepend/append merge from
// rule 2 / scenario 2: prepends nest left-file-outside, base
// `set` is left-most-wins, appends nest left-file-outside on the right
// side (assembled in reverse file order).
func mergeListSetting(layers []*layer, name string) ([]string, error) {
	var base []string
	baseSet := false
	var prepends []string
	var appendLayers [][]string

	for _, l := range layers {
		if l.unset[name] {
			base, baseSet = nil, true
		}
		if raw, ok := l.prepend[name]; ok {
			vals, err := decodeStringSlice(raw, l.path, name)
			if err != nil {
				return nil, err
			}
			prepends = append(prepends, vals...)
		}
		if raw, ok := l.appendM[name]; ok {
			vals, err := decodeStringSlice(raw, l.path, name)
			if err != nil {
				return nil, err
			}
			appendLayers = append(appendLayers, vals)
		}
		if !baseSet {
			if raw, ok := l.set[name]; ok {
				vals, err := decodeStringSlice(raw, l.path, name)
				if err != nil {
					return nil, err
				}
				base, baseSet = vals, true
			}
		}
	}

	var result []string
	result = append(result, prepends...)
	result = append(result, base...)
	for i := len(appendLayers) - 1; i >= 0; i-- {
		result = append(result, appendLayers[i]...)
	}
	return result, nil
}

func decodeStringSlice(raw json.RawMessage, path, name string) ([]string, error) {
	var vals []string
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, fmt.Errorf("site %s: invalid list value for %q: %w", path, name, err)
	}
	return vals, nil
}

func toPlatformNames(values []string) []habplatform.Name {
	out := make([]habplatform.Name, len(values))
	for i, v := range values {
		out[i] = habplatform.Name(v)
	}
	return out
}
