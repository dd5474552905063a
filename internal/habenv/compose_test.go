package habenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habplatform"
)

func mustPlatform(t *testing.T, name habplatform.Name) habplatform.Platform {
	t.Helper()
	p, err := habplatform.Default(name)
	require.NoError(t, err)
	return p
}

func TestCompose_FirstWriteWins(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{"FOO": "first"}}},
		{Ops: &hab.Operations{Prepend: map[string]string{"FOO": "second"}}},
	}
	out, err := Compose(layers, p, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "second:first", out["FOO"])
}

func TestCompose_FirstPrependEstablishesBareValue(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Prepend: map[string]string{"FOO": "only"}}},
	}
	out, err := Compose(layers, p, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "only", out["FOO"])
}

func TestCompose_SetAfterFirstWriteErrors(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{"FOO": "a"}}},
		{Ops: &hab.Operations{Set: map[string]string{"FOO": "b"}}},
	}
	_, err := Compose(layers, p, nil, "")
	assert.Error(t, err)
}

func TestCompose_PathNeverFullyDiscarded(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Prepend: map[string]string{"PATH": "/distro/bin"}}},
	}
	out, err := Compose(layers, p, nil, "/usr/bin")
	require.NoError(t, err)
	assert.Equal(t, "/distro/bin:/usr/bin", out["PATH"])
}

func TestCompose_ExplicitSetOnPathErrors(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{"PATH": "/only/this"}}},
	}
	_, err := Compose(layers, p, nil, "/usr/bin")
	require.Error(t, err)
	var reservedErr *hab.ReservedEnvVarError
	assert.ErrorAs(t, err, &reservedErr)
}

func TestCompose_ExplicitUnsetOnPathErrors(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Unset: []string{"PATH"}}},
	}
	_, err := Compose(layers, p, nil, "/usr/bin")
	require.Error(t, err)
	var reservedErr *hab.ReservedEnvVarError
	assert.ErrorAs(t, err, &reservedErr)
}

func TestCompose_ReservedNameErrors(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{hab.EnvHabURI: "x"}}},
	}
	_, err := Compose(layers, p, nil, "")
	require.Error(t, err)
	var reservedErr *hab.ReservedEnvVarError
	assert.ErrorAs(t, err, &reservedErr)
}

func TestCompose_WindowsSeparator(t *testing.T) {
	p := mustPlatform(t, habplatform.Windows)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{"FOO": "a"}}},
		{Ops: &hab.Operations{Append: map[string]string{"FOO": "b"}}},
	}
	out, err := Compose(layers, p, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "a;b", out["FOO"])
}

func TestCompose_RelativeRootToken(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{"CONFIG_DIR": "{relative_root}"}}, RelativeRoot: "/srv/configs/studio"},
	}
	out, err := Compose(layers, p, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/srv/configs/studio", out["CONFIG_DIR"])
}

func TestCompose_UserVariableToken(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{"GREETING": "hello {name}"}}},
	}
	out, err := Compose(layers, p, map[string]string{"name": "world"}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out["GREETING"])
}

func TestCompose_EnvRefToken(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	layers := []Layer{
		{Ops: &hab.Operations{Set: map[string]string{"WRAPPED": "{HOME!e}/bin"}}},
	}
	out, err := Compose(layers, p, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "$HOME/bin", out["WRAPPED"])
}

func TestCompose_OSSpecificOperations(t *testing.T) {
	linux := mustPlatform(t, habplatform.Linux)
	ops := &hab.Operations{
		OSSpecific: true,
		Platforms: map[string]hab.FlatOperations{
			"linux": {Set: map[string]string{"FOO": "linux-value"}},
			"windows": {Set: map[string]string{"FOO": "windows-value"}},
		},
	}
	out, err := Compose([]Layer{{Ops: ops}}, linux, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "linux-value", out["FOO"])
}

func TestNewFormatter_RejectsReservedVariableName(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	_, err := NewFormatter(p, "", map[string]string{"relative_root": "x"})
	assert.Error(t, err)
}
