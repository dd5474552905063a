package habfreeze

import (
	"strings"

	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habplatform"
)

// sigilFor renders the sigil a platform_path_maps mapping name is encoded
// as. It uses a NUL-delimited marker, which JSON represents losslessly via
// ` ` and which is very unlikely to occur in a real path string.
func sigilFor(name string) string {
	return "\x00HABPATH:" + name + "\x00"
}

// applySigils walks every string value that can carry a path
// (environment values and alias commands) and either encodes (replacing a
// platform-value prefix with its sigil) or decodes (replacing a sigil
// prefix with the target platform's value) each mapping in maps.
func applySigils(f *Freeze, maps PathMaps, platform habplatform.Name, encode bool) {
	transform := sigilTransform(maps, platform, encode)

	for _, vars := range f.Environment {
		for k, v := range vars {
			vars[k] = transform(v)
		}
	}
	for _, aliases := range f.Aliases {
		for name, a := range aliases {
			a.Cmd.Str = transform(a.Cmd.Str)
			if a.Cmd.List != nil {
				list := make([]string, len(a.Cmd.List))
				for i, v := range a.Cmd.List {
					list[i] = transform(v)
				}
				a.Cmd.List = list
			}
			a.Environment = transformOperations(a.Environment, transform)
			aliases[name] = a
		}
	}
}

func sigilTransform(maps PathMaps, platform habplatform.Name, encode bool) func(string) string {
	return func(s string) string {
		for name, perPlatform := range maps {
			val, ok := perPlatform[platform]
			if !ok || val == "" {
				continue
			}
			if encode {
				if strings.HasPrefix(s, val) {
					return sigilFor(name) + strings.TrimPrefix(s, val)
				}
			} else {
				prefix := sigilFor(name)
				if strings.HasPrefix(s, prefix) {
					return val + strings.TrimPrefix(s, prefix)
				}
			}
		}
		return s
	}
}

func transformOperations(ops *habforest.Operations, transform func(string) string) *habforest.Operations {
	if ops == nil {
		return nil
	}
	out := *ops
	out.Set = transformMap(ops.Set, transform)
	out.Prepend = transformMap(ops.Prepend, transform)
	out.Append = transformMap(ops.Append, transform)
	if ops.OSSpecific {
		out.Platforms = make(map[string]habforest.FlatOperations, len(ops.Platforms))
		for plat, flat := range ops.Platforms {
			out.Platforms[plat] = habforest.FlatOperations{
				Unset: flat.Unset,
				Set: transformMap(flat.Set, transform),
				Prepend: transformMap(flat.Prepend, transform),
				Append: transformMap(flat.Append, transform),
			}
		}
	}
	return &out
}

func transformMap(m map[string]string, transform func(string) string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = transform(v)
	}
	return out
}
