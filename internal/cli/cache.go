package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habsite"
)

var cacheNoCache bool

var cacheCmd = &cobra.Command{
	Use: "cache <site.json>",
	Short: "Rebuild the habcache file for a site",
	Args: cobra.ExactArgs(1),
	RunE: runCache,
}

func init() {
	cacheCmd.Flags().BoolVar(&cacheNoCache, "no-cache", false, "write an empty cache file instead of rebuilding it")
	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	sitePath := args[0]
	site, err := habsite.Load([]string{sitePath}, nil)
	if err != nil {
		return hab.NewError("loading site", err)
	}

	cachePath := cacheFilePath(site, sitePath)

	if cacheNoCache {
		c := &habforest.Cache{Globs: map[string]habforest.GlobCache{}}
		if err := habforest.Save(cachePath, c); err != nil {
			return hab.NewError("clearing cache", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", cachePath)
		return nil
	}

	c := &habforest.Cache{Globs: map[string]habforest.GlobCache{}}
	for _, glob := range site.ConfigPaths {
		gc, err := buildGlobCache(glob, habforest.ConfigGlobFiles)
		if err != nil {
			return err
		}
		c.Globs[glob] = gc
	}
	for _, glob := range site.DistroPaths {
		gc, err := buildGlobCache(glob, habforest.DistroGlobFiles)
		if err != nil {
			return err
		}
		c.Globs[glob] = gc
	}

	if err := habforest.Save(cachePath, c); err != nil {
		return hab.NewError("saving cache", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d globs)\n", cachePath, len(c.Globs))
	return nil
}

func buildGlobCache(glob string, list func(string) ([]string, error)) (habforest.GlobCache, error) {
	files, err := list(glob)
	if err != nil {
		return habforest.GlobCache{}, hab.NewError("expanding glob "+glob, err)
	}
	gc := habforest.GlobCache{Files: make([]habforest.FileCache, 0, len(files))}
	for _, path := range files {
		fc, err := habforest.BuildFileCache(path)
		if err != nil {
			return habforest.GlobCache{}, hab.NewError("hashing "+path, err)
		}
		gc.Files = append(gc.Files, fc)
	}
	return gc, nil
}

// cacheFilePath resolves site.SiteCacheFileTemplate to a concrete path. A
// "%s" placeholder is substituted with the site file's own path; a
// template with no placeholder is used as a literal path.
func cacheFilePath(site *habsite.Site, sitePath string) string {
	tmpl := site.SiteCacheFileTemplate
	if tmpl == "" {
		tmpl = sitePath + ".habcache"
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, sitePath)
	}
	return tmpl
}
