package habresolve

import (
	"github.com/hab-tool/hab/internal/habforest"
)

// FlatConfig is a matched config node with every inheritable field filled in
// from its ancestors, then the default tree. Environment is
// left unmerged — the composer combines it with each selected distro's
// operations later.
type FlatConfig struct {
	URI string
	MatchedURI string
	Name string
	SourcePath string

	Inherits bool
	Distros []string
	Environment *habforest.Operations
	AliasMods map[string]habforest.AliasModJSON
	MinVerbosity map[string]int
	Variables map[string]string
	OptionalDistros map[string]habforest.OptionalDistro
	StubDistros *habforest.StubDistros
}

// Reduce builds a FlatConfig from matched, the node Resolve returned for
// matchedURI.
func Reduce(cf *habforest.ConfigForest, matched *habforest.Node, matchedURI string) *FlatConfig {
	fc := &FlatConfig{
		URI: matched.URI(),
		MatchedURI: matchedURI,
		Name: matched.Name,
		SourcePath: matched.SourcePath,
	}

	// `inherits` is itself inheritable, and its resolved
	// value is what gates every other field below — so it is always
	// climbed for, regardless of any single ancestor's own raw flag.
	inherits, _ := reduceField(cf, matched, matchedURI, true, func(n *habforest.Node) (bool, bool) {
		if n.Inherits != nil {
			return *n.Inherits, true
		}
		return false, false
	})
	fc.Inherits = inherits

	fc.Distros, _ = reduceField(cf, matched, matchedURI, inherits, func(n *habforest.Node) ([]string, bool) {
		if len(n.Distros) > 0 {
			return n.Distros, true
		}
		return nil, false
	})

	fc.Environment, _ = reduceField(cf, matched, matchedURI, inherits, func(n *habforest.Node) (*habforest.Operations, bool) {
		if n.Environment != nil {
			return n.Environment, true
		}
		return nil, false
	})

	fc.AliasMods, _ = reduceField(cf, matched, matchedURI, inherits, func(n *habforest.Node) (map[string]habforest.AliasModJSON, bool) {
		if len(n.AliasMods) > 0 {
			return n.AliasMods, true
		}
		return nil, false
	})

	fc.MinVerbosity, _ = reduceField(cf, matched, matchedURI, inherits, func(n *habforest.Node) (map[string]int, bool) {
		if len(n.MinVerbosity) > 0 {
			return n.MinVerbosity, true
		}
		return nil, false
	})

	fc.Variables, _ = reduceField(cf, matched, matchedURI, inherits, func(n *habforest.Node) (map[string]string, bool) {
		if len(n.Variables) > 0 {
			return n.Variables, true
		}
		return nil, false
	})

	fc.OptionalDistros, _ = reduceField(cf, matched, matchedURI, inherits, func(n *habforest.Node) (map[string]habforest.OptionalDistro, bool) {
		if len(n.OptionalDistros) > 0 {
			return n.OptionalDistros, true
		}
		return nil, false
	})

	fc.StubDistros, _ = reduceField(cf, matched, matchedURI, inherits, func(n *habforest.Node) (*habforest.StubDistros, bool) {
		if n.StubDistros != nil {
			return n.StubDistros, true
		}
		return nil, false
	})

	return fc
}

// reduceField walks from start up the user tree while gate holds, returning
// the first node (inclusive of start) where get reports a value. If the
// walk is exhausted (no further user-tree ancestor) and gate still holds,
// the search continues into the default tree via the same longest-prefix
// descent the resolver uses.
func reduceField[T any](cf *habforest.ConfigForest, start *habforest.Node, startURI string, gate bool, get func(*habforest.Node) (T, bool)) (T, bool) {
	node := start
	uri := startURI

	for {
		if v, ok := get(node); ok {
			return v, true
		}
		if !gate {
			var zero T
			return zero, false
		}
		parent, parentURI, ok := walkUpUser(cf, uri)
		if !ok {
			break
		}
		node, uri = parent, parentURI
	}

	if gate {
		defNode, _ := resolveDefault(cf, splitSegments(uri))
		if defNode != nil {
			if v, ok := get(defNode); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

// walkUpUser finds the nearest strict ancestor of uri present in the user
// forest, the same drop-a-segment-and-retry rule the resolver's walk-up
// uses, but starting one level above uri itself.
func walkUpUser(cf *habforest.ConfigForest, uri string) (*habforest.Node, string, bool) {
	segs := splitSegments(uri)
	for i := len(segs) - 1; i >= 1; i-- {
		cand := joinSegments(segs[:i])
		if node, ok := cf.User[cand]; ok {
			return node, cand, true
		}
	}
	if uri != "" {
		if node, ok := cf.User[""]; ok {
			return node, "", true
		}
	}
	return nil, "", false
}

func joinSegments(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
