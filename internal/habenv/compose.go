package habenv

import (
	"fmt"
	"sort"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habplatform"
)

// Layer is one contributor to the composed environment: a config's or a
// selected distro's operations, plus the directory its `{relative_root}`
// formatter token expands to.
type Layer struct {
	Ops *hab.Operations
	RelativeRoot string
}

type varState struct {
	owned bool
	value string
}

// Compose merges layers in order, applying first-write-wins
// per variable. inheritedPATH seeds PATH so it is never fully discarded:
// an explicit set/unset on PATH is rejected with a ReservedEnvVarError,
// while prepend/append extend it.
func Compose(layers []Layer, platform habplatform.Platform, variables map[string]string, inheritedPATH string) (map[string]string, error) {
	states := map[string]*varState{
		hab.EnvPath: {owned: true, value: inheritedPATH},
	}
	sep := string(platform.ListSep())

	for _, layer := range layers {
		if layer.Ops == nil {
			continue
		}
		flat, ok := layer.Ops.ForPlatform(string(platform.Name()))
		if !ok {
			continue
		}
		formatter, err := NewFormatter(platform, layer.RelativeRoot, variables)
		if err != nil {
			return nil, err
		}

		for _, name := range sortedStrings(flat.Unset) {
			if err := checkReservedWrite(name); err != nil {
				return nil, err
			}
			if st, exists := states[name]; exists && st.owned {
				return nil, fmt.Errorf("set/unset after first-write on %s", name)
			}
			states[name] = &varState{owned: true, value: ""}
		}

		for _, name := range sortedKeys(flat.Set) {
			if err := checkReservedWrite(name); err != nil {
				return nil, err
			}
			if st, exists := states[name]; exists && st.owned {
				return nil, fmt.Errorf("set/unset after first-write on %s", name)
			}
			states[name] = &varState{owned: true, value: formatter.Expand(flat.Set[name])}
		}

		for _, name := range sortedKeys(flat.Prepend) {
			if err := checkReserved(name); err != nil {
				return nil, err
			}
			val := formatter.Expand(flat.Prepend[name])
			if st, exists := states[name]; exists && st.owned {
				st.value = val + sep + st.value
			} else {
				states[name] = &varState{owned: true, value: val}
			}
		}

		for _, name := range sortedKeys(flat.Append) {
			if err := checkReserved(name); err != nil {
				return nil, err
			}
			val := formatter.Expand(flat.Append[name])
			if st, exists := states[name]; exists && st.owned {
				st.value = st.value + sep + val
			} else {
				states[name] = &varState{owned: true, value: val}
			}
		}
	}

	out := make(map[string]string, len(states))
	for name, st := range states {
		out[name] = st.value
	}
	return out, nil
}

func checkReserved(name string) error {
	if name == hab.EnvHabURI || name == hab.EnvHabFreeze {
		return &hab.ReservedEnvVarError{Msg: fmt.Sprintf("%s is reserved and cannot be set or unset by a config", name)}
	}
	return nil
}

// checkReservedWrite additionally forbids explicit set/unset of PATH,
// which may only be extended via prepend/append.
func checkReservedWrite(name string) error {
	if name == hab.EnvPath {
		return &hab.ReservedEnvVarError{Msg: "PATH cannot be set or unset directly by a config; use prepend/append"}
	}
	return checkReserved(name)
}

// sortedKeys/sortedStrings give deterministic iteration order over a
// layer's own operation maps/slices, so error messages and any
// same-layer-same-var collisions are reproducible across runs.
func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedStrings(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
