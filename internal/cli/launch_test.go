package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLaunchFixtureSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	sitePath := filepath.Join(root, "site.json")
	writeFile(t, sitePath, `{
		"set": {
			"config_paths": ["`+filepath.Join(root, "configs", "*.json")+`"],
			"distro_paths": ["`+filepath.Join(root, "distros", "*")+`"]
		}
	}`)

	writeFile(t, filepath.Join(root, "configs", "sc1.json"), `{
		"name": "Sc1",
		"context": ["proj"],
		"distros": ["tool"]
	}`)

	writeFile(t, filepath.Join(root, "distros", "tool", "1.0.0", ".hab.json"), `{
		"name": "tool",
		"version": "1.0.0",
		"aliases": {"linux": [["run", {"cmd": "echo"}]]}
	}`)

	return sitePath
}

func TestRunLaunch_ExecutesAliasSuccessfully(t *testing.T) {
	resetFlags(t)
	sitePath := setupLaunchFixtureSite(t)
	flags.Sites = []string{sitePath}

	cmd := RootCmd()
	err := runLaunch(cmd, []string{"proj/Sc1", "run", "hello"})
	require.NoError(t, err)
	assert.Equal(t, 0, launchExitCode)
}

func TestRunLaunch_UnknownAliasErrors(t *testing.T) {
	resetFlags(t)
	sitePath := setupLaunchFixtureSite(t)
	flags.Sites = []string{sitePath}

	cmd := RootCmd()
	err := runLaunch(cmd, []string{"proj/Sc1", "does-not-exist"})
	assert.Error(t, err)
}
