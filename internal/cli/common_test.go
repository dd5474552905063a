package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hab-tool/hab/internal/habalias"
	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habplatform"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// resetFlags restores global flag state between tests; tests share the
// package-level flags/rootCmd the way the CLI itself does.
func resetFlags(t *testing.T) {
	t.Helper()
	*flags = GlobalFlags{}
	launchExitCode = -1
	t.Cleanup(func() {
		*flags = GlobalFlags{}
		launchExitCode = -1
	})
}

func TestSitePathsPrefersFlag(t *testing.T) {
	resetFlags(t)
	flags.Sites = []string{"/a/site.json"}
	platform, err := habplatform.Default(habplatform.Linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/site.json"}, sitePaths(platform))
}

func TestSitePathsFallsBackToEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv("HAB_PATHS", "/a/site.json:/b/site.json")
	platform, err := habplatform.Default(habplatform.Linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/site.json", "/b/site.json"}, sitePaths(platform))
}

func TestResolveURIArgPassesThroughNonDash(t *testing.T) {
	uri, err := resolveURIArg(&cobra.Command{}, "foo/bar")
	require.NoError(t, err)
	assert.Equal(t, "foo/bar", uri)
}

func TestResolveURIArgDashRequiresPrefs(t *testing.T) {
	resetFlags(t)
	cmd := &cobra.Command{}
	bindGlobalFlags(cmd)
	_, err := resolveURIArg(cmd, "-")
	assert.Error(t, err)
}

func TestReservedEnvIncludesURIAndFreeze(t *testing.T) {
	out := reservedEnv(map[string]string{"FOO": "bar"}, "some/uri", "v1:AAAA")
	assert.Equal(t, "bar", out["FOO"])
	assert.Equal(t, "some/uri", out["HAB_URI"])
	assert.Equal(t, "v1:AAAA", out["HAB_FREEZE"])
}

func TestErrUnknownAlias(t *testing.T) {
	err := errUnknownAlias("foo/bar", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestToRenderAliases(t *testing.T) {
	aliases := map[string]habalias.Alias{
		"maya": {
			Name: "maya",
			Cmd: habforest.CmdValue{Str: "mayabin"},
			Environment: &habforest.Operations{
				Set: map[string]string{"FOO": "bar"},
			},
		},
	}
	out := toRenderAliases(aliases, habplatform.Linux)
	require.Contains(t, out, "maya")
	assert.Equal(t, "mayabin", out["maya"].Cmd.Str)
	require.Len(t, out["maya"].ScopedEnv, 1)
	assert.Equal(t, "FOO", out["maya"].ScopedEnv[0].Name)
}
