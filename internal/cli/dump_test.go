package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDump_CfgPrintsFlatConfig(t *testing.T) {
	resetFlags(t)
	sitePath := setupFixtureSite(t)
	flags.Sites = []string{sitePath}
	dumpType = "cfg"
	dumpFormat = "json"
	t.Cleanup(func() { dumpType, dumpFormat, dumpUnfreeze = "cfg", "text", "" })

	cmd := RootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	t.Cleanup(func() { cmd.SetOut(nil) })

	require.NoError(t, runDump(cmd, []string{"proj/Sc1"}))
	assert.Contains(t, buf.String(), "proj/Sc1")
}

func TestRunDump_AllURIsListsEveryURI(t *testing.T) {
	resetFlags(t)
	sitePath := setupFixtureSite(t)
	flags.Sites = []string{sitePath}
	dumpType = "all-uris"
	dumpFormat = "json"
	t.Cleanup(func() { dumpType, dumpFormat, dumpUnfreeze = "cfg", "text", "" })

	cmd := RootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	t.Cleanup(func() { cmd.SetOut(nil) })

	require.NoError(t, runDump(cmd, nil))
	assert.Contains(t, buf.String(), "proj/Sc1")
}

func TestReadUnfreezeSource_Literal(t *testing.T) {
	got, err := readUnfreezeSource("v1:AAAA")
	require.NoError(t, err)
	assert.Equal(t, "v1:AAAA", got)
}

func TestReadUnfreezeSource_FilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "freeze.txt")
	writeFile(t, path, "v1:AAAA\n")

	got, err := readUnfreezeSource("@" + path)
	require.NoError(t, err)
	assert.Equal(t, "v1:AAAA", got)
}
