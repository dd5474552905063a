package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/hab-tool/hab/internal/pipeline"
)

func TestBuildFreeze_IncludesEveryPlatform(t *testing.T) {
	resetFlags(t)
	sitePath := setupFixtureSite(t)

	platform, err := habplatform.Default(habplatform.Linux)
	require.NoError(t, err)

	primary, err := pipeline.Resolve(context.Background(), pipeline.Options{
		SitePaths: []string{sitePath},
		URI: "proj/Sc1",
		Platform: platform,
	})
	require.NoError(t, err)

	f, err := buildFreeze(context.Background(), []string{sitePath}, platform, "proj/Sc1", primary)
	require.NoError(t, err)

	assert.Equal(t, "proj/Sc1", f.URI)
	for _, name := range habplatform.All {
		assert.Contains(t, f.Environment, string(name))
	}
	assert.Equal(t, "bar", f.Environment[string(habplatform.Linux)]["FOO"])
}
