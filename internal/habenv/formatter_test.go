package habenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hab-tool/hab/internal/habplatform"
)

func TestFormatter_SeparatorToken(t *testing.T) {
	p := mustPlatform(t, habplatform.Windows)
	f, err := NewFormatter(p, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "a;b", f.Expand("a{;}b"))
}

func TestFormatter_UnknownKeyLeftUnexpanded(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	f, err := NewFormatter(p, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "{nope}", f.Expand("{nope}"))
}

func TestFormatter_MultipleTokensInOneValue(t *testing.T) {
	p := mustPlatform(t, habplatform.Linux)
	f, err := NewFormatter(p, "/root", map[string]string{"suffix": "bin"})
	require.NoError(t, err)
	assert.Equal(t, "/root/bin::", f.Expand("{relative_root}/{suffix}:{;}"))
}
