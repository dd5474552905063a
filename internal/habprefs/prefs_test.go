package habprefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsEmptyPrefs(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "prefs.toml"))
	require.NoError(t, err)
	assert.Equal(t, Prefs{}, p)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hab", "prefs.toml")
	require.NoError(t, Save(path, Prefs{LastURI: "not_a_project/Sc1"}))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "not_a_project/Sc1", p.LastURI)
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "prefs.toml")
	require.NoError(t, Save(path, Prefs{LastURI: "x"}))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x", p.LastURI)
}

func TestSave_OverwritesExistingAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, Save(path, Prefs{LastURI: "first"}))
	require.NoError(t, Save(path, Prefs{LastURI: "second"}))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "second", p.LastURI)
}
