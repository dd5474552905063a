// Package habresolve implements the URI resolver and the
// inheritance reducer: together they turn an arbitrary requested URI
// into a FlatConfig ready for the requirement solver.
package habresolve

import (
	"strings"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habforest"
)

// Resolve maps a requested URI to a concrete config node: exact match,
// walk-up within the user forest, then default-tree longest-prefix descent
//. It returns the matched node and the URI it was actually
// found under, for diagnostics.
func Resolve(cf *habforest.ConfigForest, requested string) (*habforest.Node, string, error) {
	segs := splitSegments(requested)

	for i := len(segs); i >= 1; i-- {
		cand := strings.Join(segs[:i], "/")
		if node, ok := cf.User[cand]; ok {
			return node, cand, nil
		}
	}
	// Root config: the user tree's entry with no segments at all.
	if node, ok := cf.User[""]; ok {
		return node, "", nil
	}

	node, matched := resolveDefault(cf, segs)
	if node == nil {
		return nil, "", &hab.URIUnresolvedError{Msg: "no config or default match for URI: " + requested}
	}
	return node, matched, nil
}

// resolveDefault implements the default-tree descent: the first requested
// segment stands for the "default" root itself; for each following segment
// it looks for a direct child of the current node whose name is the
// longest prefix of that segment, and stops at the first segment with no
// such child.
func resolveDefault(cf *habforest.ConfigForest, segs []string) (*habforest.Node, string) {
	current := "default"
	node, ok := cf.Default[current]
	if !ok {
		return nil, ""
	}

	if len(segs) > 0 {
		segs = segs[1:]
	}
	for _, target := range segs {
		bestChild, bestLen := "", -1
		prefix := current + "/"
		for key := range cf.Default {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			rest := key[len(prefix):]
			if strings.Contains(rest, "/") {
				continue // only direct children of `current`
			}
			if strings.HasPrefix(target, rest) && len(rest) > bestLen {
				bestChild, bestLen = rest, len(rest)
			}
		}
		if bestChild == "" {
			break
		}
		current = current + "/" + bestChild
		node = cf.Default[current]
	}
	return node, current
}

func splitSegments(uri string) []string {
	uri = strings.Trim(uri, "/")
	if uri == "" {
		return nil
	}
	return strings.Split(uri, "/")
}
