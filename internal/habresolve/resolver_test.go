package habresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hab-tool/hab/internal/habforest"
)

func node(name string, context ...string) *habforest.Node {
	n := &habforest.Node{Name: name, Context: context}
	return n
}

func forestWith(user map[string]*habforest.Node, def map[string]*habforest.Node) *habforest.ConfigForest {
	cf := habforest.NewConfigForest()
	for k, v := range user {
		cf.User[k] = v
	}
	for k, v := range def {
		cf.Default[k] = v
	}
	return cf
}

func TestResolve_ExactMatch(t *testing.T) {
	cf := forestWith(map[string]*habforest.Node{
		"studio/show1": node("show1", "studio"),
	}, nil)

	n, matched, err := Resolve(cf, "studio/show1")
	require.NoError(t, err)
	assert.Equal(t, "studio/show1", matched)
	assert.Equal(t, "show1", n.Name)
}

func TestResolve_WalkUpFallback(t *testing.T) {
	cf := forestWith(map[string]*habforest.Node{
		"studio": node("studio"),
	}, nil)

	n, matched, err := Resolve(cf, "studio/show1/shot2")
	require.NoError(t, err)
	assert.Equal(t, "studio", matched)
	assert.Equal(t, "studio", n.Name)
}

func TestResolve_DefaultTreeLongestPrefixDescent(t *testing.T) {
	cf := forestWith(nil, map[string]*habforest.Node{
		"default": node("default"),
		"default/Sc1": node("Sc1", "default"),
		"default/Sc11": node("Sc11", "default"),
		"default/Sc1/next": node("next", "default", "Sc1"),
	})

	n, matched, err := Resolve(cf, "not_a_project/Sc101")
	require.NoError(t, err)
	assert.Equal(t, "default/Sc1", matched)
	assert.Equal(t, "Sc1", n.Name)
}

func TestResolve_DefaultTreeStopsWhenNoPrefixMatches(t *testing.T) {
	cf := forestWith(nil, map[string]*habforest.Node{
		"default": node("default"),
		"default/abc": node("abc", "default"),
	})

	n, matched, err := Resolve(cf, "zzz/whatever")
	require.NoError(t, err)
	assert.Equal(t, "default", matched)
	assert.Equal(t, "default", n.Name)
}

func TestResolve_Unresolvable(t *testing.T) {
	cf := forestWith(nil, nil)
	_, _, err := Resolve(cf, "anything")
	assert.Error(t, err)
}

func TestResolve_RootConfig(t *testing.T) {
	cf := forestWith(map[string]*habforest.Node{
		"": node(""),
	}, nil)

	n, matched, err := Resolve(cf, "nothing/matches/here")
	require.NoError(t, err)
	assert.Equal(t, "", matched)
	assert.NotNil(t, n)
}
