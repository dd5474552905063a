// Package habsite loads and merges hab site files into one effective Site.
package habsite

import "github.com/hab-tool/hab/internal/habplatform"

// Site holds the effective settings computed from one or more site files
//.
type Site struct {
	ConfigPaths []string
	DistroPaths []string
	Platforms []habplatform.Name

	// PlatformPathMaps maps a mapping name to platform -> leading directory,
	// used to translate paths across platforms and to freeze/unfreeze paths.
	PlatformPathMaps map[string]map[habplatform.Name]string

	Prereleases bool
	IgnoredDistros []string
	FreezeVersion int
	HasFreezeVersion bool

	// EntryPoints maps an extension-point name to a path, or to nil when
	// the JSON value was `null` ("explicitly disabled").
	EntryPoints map[string]*string

	PrefsDefault string
	PrefsURITimeout int
	Colorize bool
	SiteCacheFileTemplate string

	// Paths records the site files that were actually merged into this
	// Site, in final left-most-first order, after add_paths expansion.
	Paths []string
}

// listSettingNames enumerates the ordered list-valued settings that honor
// prepend/append merge semantics.
var listSettingNames = []string{"config_paths", "distro_paths", "platforms", "ignored_distros"}

// scalarSettingNames enumerates left-most-wins scalar/mapping settings.
var scalarSettingNames = []string{
	"prereleases", "freeze_version", "prefs_default", "prefs_uri_timeout",
	"colorize", "site_cache_file_template",
}
