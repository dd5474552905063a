package habsolve

import (
	"fmt"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habmarker"
	"github.com/hab-tool/hab/internal/habversion"
)

// DistroSource answers the solver's questions about the distro forest: what
// versions exist for a name, and the node for a given (name, version). It
// is the seam a test fakes to avoid building a full habforest.DistroForest.
type DistroSource interface {
	// Versions returns name's known versions in ascending PEP-440 order.
	Versions(name string) []string
	// Node returns the parsed distro document for (name, version).
	Node(name, version string) (*habforest.DistroNode, bool)
}

// forestSource adapts a *habforest.DistroForest to DistroSource.
type forestSource struct {
	forest *habforest.DistroForest
}

func NewForestSource(forest *habforest.DistroForest) DistroSource {
	return forestSource{forest: forest}
}

func (s forestSource) Versions(name string) []string {
	return s.forest.SortedVersions(name)
}

func (s forestSource) Node(name, version string) (*habforest.DistroNode, bool) {
	byVersion, ok := s.forest.Versions[name]
	if !ok {
		return nil, false
	}
	n, ok := byVersion[version]
	return n, ok
}

// Options configures one solve.
type Options struct {
	Source DistroSource
	Env habmarker.Env
	Prereleases bool
	StubSet map[string]bool // stub_distros.set: names treated as satisfied with no content
	StubUnset map[string]bool // stub_distros.unset: names forced to resolve normally even if a parent stubbed them
}

// Selected is one name's outcome: either a concrete distro version or a
// stub with no content.
type Selected struct {
	Name string
	Version string // empty when Stub is true
	Stub bool
	Node *habforest.DistroNode // nil when Stub is true
}

// Solve runs the breadth-first requirement solver starting from roots, in
// the order given, and returns the selections in the deterministic order
// they were committed (this also seeds downstream composition order,
// "Ordering").
func Solve(roots []Requirement, opts Options) ([]Selected, error) {
	selectedVersion := map[string]string{} // name -> version, "" for stub
	isStub := map[string]bool{}
	specs := map[string]habversion.SpecifierSet{}
	var order []string
	nodes := map[string]*habforest.DistroNode{}

	queue := append([]Requirement{}, roots...)
	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]

		if req.Marker != nil && !req.Marker.Eval(opts.Env) {
			continue
		}

		if opts.StubUnset[req.Name] {
			// forced to resolve normally even if previously/elsewhere stubbed
		} else if opts.StubSet[req.Name] {
			if v, ok := selectedVersion[req.Name]; ok && !isStub[req.Name] {
				_ = v // already concretely selected; a stub request doesn't override it
				continue
			}
			if _, ok := selectedVersion[req.Name]; !ok {
				selectedVersion[req.Name] = ""
				isStub[req.Name] = true
				order = append(order, req.Name)
			}
			continue
		}

		accumulated := append(append(habversion.SpecifierSet{}, specs[req.Name]...), req.Specifiers...)
		specs[req.Name] = accumulated

		if existing, ok := selectedVersion[req.Name]; ok && !isStub[req.Name] {
			v, err := habversion.Parse(existing)
			if err == nil && accumulated.Matches(v) {
				continue
			}
			// existing selection no longer satisfies the widened specifier
			// set; fall through and re-resolve against the full set.
		}

		version, err := pickNewest(req.Name, accumulated, opts)
		if err != nil {
			return nil, &hab.InvalidRequirementError{Msg: err.Error()}
		}

		node, ok := opts.Source.Node(req.Name, version)
		if !ok {
			return nil, &hab.InvalidRequirementError{Msg: fmt.Sprintf("distro %s %s vanished between selection and lookup", req.Name, version)}
		}

		if _, already := selectedVersion[req.Name]; !already {
			order = append(order, req.Name)
		}
		selectedVersion[req.Name] = version
		isStub[req.Name] = false
		nodes[req.Name] = node

		for _, dep := range node.Distros {
			parsed, err := ParseRequirement(dep)
			if err != nil {
				return nil, &hab.InvalidRequirementError{Msg: fmt.Sprintf("distro %s %s: %v", req.Name, version, err)}
			}
			queue = append(queue, parsed)
		}
	}

	out := make([]Selected, 0, len(order))
	for _, name := range order {
		if isStub[name] {
			out = append(out, Selected{Name: name, Stub: true})
			continue
		}
		out = append(out, Selected{Name: name, Version: selectedVersion[name], Node: nodes[name]})
	}
	return out, nil
}

// pickNewest selects the newest version of name satisfying every specifier
// in set, honoring prereleases: prereleases are
// excluded unless opts.Prereleases is set; when no final release matches,
// the newest matching prerelease is picked.
func pickNewest(name string, set habversion.SpecifierSet, opts Options) (string, error) {
	versions := opts.Source.Versions(name)
	if len(versions) == 0 {
		return "", fmt.Errorf("no distro named %q exists", name)
	}

	var best *habversion.Version
	var bestAny *habversion.Version // best match ignoring the prerelease exclusion, for the "only candidate" carve-out

	for _, vs := range versions {
		v, err := habversion.Parse(vs)
		if err != nil {
			continue
		}
		if !set.Matches(v) {
			continue
		}
		if bestAny == nil || habversion.Less(bestAny, v) {
			bestAny = v
		}
		if v.IsPreRelease() && !opts.Prereleases {
			continue
		}
		if best == nil || habversion.Less(best, v) {
			best = v
		}
	}

	if best != nil {
		return best.String(), nil
	}
	if bestAny != nil {
		return bestAny.String(), nil
	}
	return "", fmt.Errorf("no version of %q satisfies %s", name, set.String())
}
