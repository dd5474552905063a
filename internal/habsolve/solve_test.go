package habsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habmarker"
)

type fakeSource struct {
	versions map[string][]string
	nodes map[string]map[string]*habforest.DistroNode
}

func newFakeSource() *fakeSource {
	return &fakeSource{versions: map[string][]string{}, nodes: map[string]map[string]*habforest.DistroNode{}}
}

func (f *fakeSource) add(name, version string, deps ...string) {
	f.versions[name] = append(f.versions[name], version)
	if f.nodes[name] == nil {
		f.nodes[name] = map[string]*habforest.DistroNode{}
	}
	node := &habforest.DistroNode{}
	node.Name = name
	node.Version = version
	node.Distros = deps
	f.nodes[name][version] = node
}

func (f *fakeSource) Versions(name string) []string { return f.versions[name] }
func (f *fakeSource) Node(name, version string) (*habforest.DistroNode, bool) {
	n, ok := f.nodes[name][version]
	return n, ok
}

func parseReq(t *testing.T, s string) Requirement {
	t.Helper()
	r, err := ParseRequirement(s)
	require.NoError(t, err)
	return r
}

func TestSolve_PicksNewestSatisfying(t *testing.T) {
	src := newFakeSource()
	src.add("python", "3.9.0")
	src.add("python", "3.11.2")
	src.add("python", "3.12.0")

	out, err := Solve([]Requirement{parseReq(t, "python<3.12")}, Options{Source: src})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "3.11.2", out[0].Version)
}

func TestSolve_RecursesIntoDependencies(t *testing.T) {
	src := newFakeSource()
	src.add("app", "1.0.0", "lib>=2.0")
	src.add("lib", "2.0.0")
	src.add("lib", "1.0.0")

	out, err := Solve([]Requirement{parseReq(t, "app")}, Options{Source: src})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "app", out[0].Name)
	assert.Equal(t, "lib", out[1].Name)
	assert.Equal(t, "2.0.0", out[1].Version)
}

func TestSolve_AccumulatesSpecifiersAcrossRequirements(t *testing.T) {
	src := newFakeSource()
	src.add("top1", "1.0.0", "shared>=1.0")
	src.add("top2", "1.0.0", "shared<2.0")
	src.add("shared", "1.5.0")
	src.add("shared", "2.5.0")

	out, err := Solve([]Requirement{parseReq(t, "top1"), parseReq(t, "top2")}, Options{Source: src})
	require.NoError(t, err)
	var sharedVersion string
	for _, s := range out {
		if s.Name == "shared" {
			sharedVersion = s.Version
		}
	}
	assert.Equal(t, "1.5.0", sharedVersion)
}

func TestSolve_UnsatisfiableReturnsInvalidRequirementError(t *testing.T) {
	src := newFakeSource()
	src.add("top1", "1.0.0", "shared>=2.0")
	src.add("top2", "1.0.0", "shared<2.0")
	src.add("shared", "1.0.0")
	src.add("shared", "2.0.0")

	_, err := Solve([]Requirement{parseReq(t, "top1"), parseReq(t, "top2")}, Options{Source: src})
	require.Error(t, err)
}

func TestSolve_MissingDistroErrors(t *testing.T) {
	src := newFakeSource()
	_, err := Solve([]Requirement{parseReq(t, "nope")}, Options{Source: src})
	assert.Error(t, err)
}

func TestSolve_MarkerFalseDrops(t *testing.T) {
	src := newFakeSource()
	src.add("winonly", "1.0.0")

	out, err := Solve([]Requirement{parseReq(t, `winonly;sys_platform=="win32"`)}, Options{
		Source: src,
		Env: habmarker.Env{SysPlatform: "linux"},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSolve_PrereleaseExcludedUnlessOnlyCandidate(t *testing.T) {
	src := newFakeSource()
	src.add("tool", "1.0.0a1")

	out, err := Solve([]Requirement{parseReq(t, "tool")}, Options{Source: src, Prereleases: false})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1.0.0a1", out[0].Version)
}

func TestSolve_StubSetSatisfiesWithoutContent(t *testing.T) {
	src := newFakeSource()
	out, err := Solve([]Requirement{parseReq(t, "ghost")}, Options{
		Source: src,
		StubSet: map[string]bool{"ghost": true},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Stub)
	assert.Nil(t, out[0].Node)
}
