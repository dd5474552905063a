package habsite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hab-tool/hab/internal/habsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSiteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MultiSiteListMerge(t *testing.T) {
	dir := t.TempDir()
	left := writeSiteFile(t, dir, "left.json", `{
		"prepend": {"config_paths": ["left_prepend"]},
		"append": {"config_paths": ["left_append"]}
	}`)
	middle := writeSiteFile(t, dir, "middle.json", `{
		"prepend": {"config_paths": ["middle_prepend"]},
		"append": {"config_paths": ["middle_append"]}
	}`)
	right := writeSiteFile(t, dir, "right.json", `{
		"prepend": {"config_paths": ["right_prepend"]},
		"append": {"config_paths": ["right_append"]}
	}`)

	site, err := habsite.Load([]string{left, middle, right}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"left_prepend", "middle_prepend", "right_prepend",
		"right_append", "middle_append", "left_append",
	}, site.ConfigPaths)
}

func TestLoad_ScalarLeftMostWins(t *testing.T) {
	dir := t.TempDir()
	left := writeSiteFile(t, dir, "left.json", `{"set": {"colorize": true}}`)
	right := writeSiteFile(t, dir, "right.json", `{"set": {"colorize": false}}`)

	site, err := habsite.Load([]string{left, right}, nil)
	require.NoError(t, err)
	assert.True(t, site.Colorize)
}

func TestLoad_PlatformPathMapsPerKeyLeftMostWins(t *testing.T) {
	dir := t.TempDir()
	left := writeSiteFile(t, dir, "left.json", `{"set": {"platform_path_maps": {"maya": {"linux": "/opt/maya"}}}}`)
	right := writeSiteFile(t, dir, "right.json", `{"set": {"platform_path_maps": {
		"maya": {"linux": "/should/not/win"},
		"houdini": {"linux": "/opt/houdini"}
	}}}`)

	site, err := habsite.Load([]string{left, right}, nil)
	require.NoError(t, err)

	require.Contains(t, site.PlatformPathMaps, "maya")
	require.Contains(t, site.PlatformPathMaps, "houdini")
	assert.Equal(t, "/opt/maya", site.PlatformPathMaps["maya"]["linux"])
	assert.Equal(t, "/opt/houdini", site.PlatformPathMaps["houdini"]["linux"])
}

func TestLoad_EntryPointNullDisables(t *testing.T) {
	dir := t.TempDir()
	left := writeSiteFile(t, dir, "left.json", `{"set": {"entry_points": {"hab.site.add_paths": null}}}`)

	site, err := habsite.Load([]string{left}, nil)
	require.NoError(t, err)

	target, ok := site.EntryPoints["hab.site.add_paths"]
	require.True(t, ok)
	assert.Nil(t, target)
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	_, err := habsite.Load([]string{"/does/not/exist.json"}, nil)
	require.Error(t, err)
}

func TestLoad_InvalidJSONIsFatal(t *testing.T) {
	dir := t.TempDir()
	bad := writeSiteFile(t, dir, "bad.json", `{not valid json`)

	_, err := habsite.Load([]string{bad}, nil)
	require.Error(t, err)
}
