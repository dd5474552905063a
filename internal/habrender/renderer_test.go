package habrender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habplatform"
)

func TestIterEnvOps_SortedAndUnsetFirst(t *testing.T) {
	ops := IterEnvOps(map[string]string{"ZEBRA": "z", "ALPHA": "a"}, []string{"OLD"})
	require.Len(t, ops, 3)
	assert.Equal(t, EnvOp{Op: OpUnset, Name: "OLD"}, ops[0])
	assert.Equal(t, EnvOp{Op: OpSet, Name: "ALPHA", Value: "a"}, ops[1])
	assert.Equal(t, EnvOp{Op: OpSet, Name: "ZEBRA", Value: "z"}, ops[2])
}

func TestIterAliases_SortedByName(t *testing.T) {
	aliases := map[string]Alias{
		"zmaya": {Name: "zmaya", Cmd: habforest.CmdValue{Str: "maya"}},
		"anim": {Name: "anim", Cmd: habforest.CmdValue{Str: "anim"}},
	}
	out := IterAliases(aliases)
	require.Len(t, out, 2)
	assert.Equal(t, "anim", out[0].Name)
	assert.Equal(t, "zmaya", out[1].Name)
}

func TestArgv_BareStringIsSingleElement(t *testing.T) {
	assert.Equal(t, []string{"maya"}, Argv(habforest.CmdValue{Str: "maya"}))
}

func TestArgv_ListPassedThrough(t *testing.T) {
	assert.Equal(t, []string{"maya", "-batch"}, Argv(habforest.CmdValue{List: []string{"maya", "-batch"}}))
}

func TestJoinArgv_EscapesEachElement(t *testing.T) {
	p, err := habplatform.Default(habplatform.Linux)
	require.NoError(t, err)
	joined := JoinArgv(p, []string{"maya", "it's fine"})
	assert.Equal(t, `'maya' 'it'\''s fine'`, joined)
}
