package habsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement_NameOnly(t *testing.T) {
	r, err := ParseRequirement("python")
	require.NoError(t, err)
	assert.Equal(t, "python", r.Name)
	assert.Empty(t, r.Specifiers)
	assert.Nil(t, r.Marker)
}

func TestParseRequirement_WithSpecifier(t *testing.T) {
	r, err := ParseRequirement("python>=3.8,<3.12")
	require.NoError(t, err)
	assert.Equal(t, "python", r.Name)
	require.Len(t, r.Specifiers, 2)
}

func TestParseRequirement_WithMarker(t *testing.T) {
	r, err := ParseRequirement(`gcc;sys_platform=="linux"`)
	require.NoError(t, err)
	assert.Equal(t, "gcc", r.Name)
	require.NotNil(t, r.Marker)
}

func TestParseRequirement_WithSpecifierAndMarker(t *testing.T) {
	r, err := ParseRequirement(`python>=3.8;os_name=="posix"`)
	require.NoError(t, err)
	assert.Equal(t, "python", r.Name)
	require.Len(t, r.Specifiers, 1)
	require.NotNil(t, r.Marker)
}

func TestParseRequirement_MissingNameErrors(t *testing.T) {
	_, err := ParseRequirement(">=1.0")
	assert.Error(t, err)
}

func TestParseRequirement_InvalidSpecifierErrors(t *testing.T) {
	_, err := ParseRequirement("python>=not-a-version!!")
	assert.Error(t, err)
}
