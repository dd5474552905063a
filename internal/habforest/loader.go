package habforest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habversion"
)

// LoadOptions configures a forest load.
type LoadOptions struct {
	ConfigGlobs []string
	DistroGlobs []string
	IgnoredDistros map[string]bool
	Concurrency int
}

// Load resolves every config and distro glob and builds the two forests.
func Load(ctx context.Context, opts LoadOptions) (*ConfigForest, *DistroForest, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}

	configForest := NewConfigForest()
	configSeen := map[string]bool{} // URI -> seen across any glob (first wins)

	for _, glob := range opts.ConfigGlobs {
		matches, err := expandGlob(glob)
		if err != nil {
			return nil, nil, err
		}

		nodes, err := parseAll(ctx, matches, opts.Concurrency)
		if err != nil {
			return nil, nil, err
		}

		withinGlob := map[string]bool{}
		for _, path := range matches {
			node, ok := nodes[path]
			if !ok {
				continue // dropped: parse error already warned
			}
			if node.Name == "" {
				slog.Warn("config missing required name field, dropping", "path", path)
				continue
			}
			uri := node.URI()
			if withinGlob[uri] {
				return nil, nil, &hab.DuplicateJSONError{Msg: fmt.Sprintf("duplicate config URI %q within glob %q (file %s)", uri, glob, path)}
			}
			withinGlob[uri] = true

			if configSeen[uri] {
				slog.Warn("config URI already defined by an earlier glob, ignoring", "uri", uri, "path", path)
				continue
			}
			configSeen[uri] = true

			tree := configForest.User
			if uri == "default" || strings.HasPrefix(uri, "default/") {
				tree = configForest.Default
			}
			tree[uri] = node
		}
	}

	distroForest := NewDistroForest()
	distroSeen := map[string]bool{} // "name@version" -> seen across any glob

	for _, glob := range opts.DistroGlobs {
		augmented := joinGlob(glob, "*", ".hab.json")
		matches, err := expandGlob(augmented)
		if err != nil {
			return nil, nil, err
		}

		nodes, err := parseAll(ctx, matches, opts.Concurrency)
		if err != nil {
			return nil, nil, err
		}

		withinGlob := map[string]bool{}
		for _, path := range matches {
			node, ok := nodes[path]
			if !ok {
				continue
			}
			if node.Name == "" {
				slog.Warn("distro missing required name field, dropping", "path", path)
				continue
			}

			dir := filepath.Dir(path)
			version, err := ResolveVersion(node, dir)
			if err != nil {
				slog.Warn("distro has invalid version, dropping", "name", node.Name, "dir", dir, "error", err)
				continue
			}
			if opts.IgnoredDistros[version] {
				slog.Debug("distro version ignored by site config", "name", node.Name, "version", version)
				continue
			}

			key := node.Name + "@" + version
			if withinGlob[key] {
				return nil, nil, &hab.DuplicateJSONError{Msg: fmt.Sprintf("duplicate distro %s %s within glob %q (dir %s)", node.Name, version, glob, dir)}
			}
			withinGlob[key] = true

			if distroSeen[key] {
				slog.Warn("distro already defined by an earlier glob, ignoring", "name", node.Name, "version", version, "dir", dir)
				continue
			}
			distroSeen[key] = true

			dn := &DistroNode{Node: *node, Dir: dir}
			dn.Version = version
			if distroForest.Versions[node.Name] == nil {
				distroForest.Versions[node.Name] = map[string]*DistroNode{}
			}
			distroForest.Versions[node.Name][version] = dn
		}
	}

	return configForest, distroForest, nil
}

// SortedVersions returns name's known versions in ascending PEP-440 order,
// dropping any that fail to parse (should not happen — ResolveVersion
// already validated them during load).
func (f *DistroForest) SortedVersions(name string) []string {
	versions := f.Versions[name]
	if len(versions) == 0 {
		return nil
	}
	parsed := make([]*habversion.Version, 0, len(versions))
	for v := range versions {
		pv, err := habversion.Parse(v)
		if err != nil {
			continue
		}
		parsed = append(parsed, pv)
	}
	sort.Slice(parsed, func(i, j int) bool { return habversion.Less(parsed[i], parsed[j]) })
	out := make([]string, len(parsed))
	for i, v := range parsed {
		out[i] = v.String()
	}
	return out
}

func expandGlob(pattern string) ([]string, error) {
	base, rest := doublestar.SplitPattern(pattern)
	fsys := os.DirFS(base)
	matches, err := doublestar.Glob(fsys, rest)
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}

	ignore := newIgnoreMatcher(base)

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if ignore.isIgnored(m) {
			continue
		}
		full := filepath.Join(base, m)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		if !strings.HasSuffix(full, ".json") {
			continue
		}
		out = append(out, full)
	}
	sort.Strings(out)
	return out, nil
}

func joinGlob(glob, middle, suffix string) string {
	return strings.TrimSuffix(glob, "/") + "/" + middle + "/" + suffix
}

// ConfigGlobFiles expands a config glob pattern to its matched file paths,
// applying the same .gitignore-style filtering Load uses. Exposed for the
// cache subcommand, which needs the file list independent of parsing.
func ConfigGlobFiles(glob string) ([]string, error) {
	return expandGlob(glob)
}

// DistroGlobFiles expands a distro glob pattern to its matched
// ".hab.json" file paths, the same augmentation Load applies.
func DistroGlobFiles(glob string) ([]string, error) {
	return expandGlob(joinGlob(glob, "*", ".hab.json"))
}

// parseAll parses every matched JSON file with bounded concurrency
// (golang.org/x/sync/errgroup). Results are collected into a map and the
// deterministic traversal order is restored by the caller iterating
// `matches` rather than map order.
func parseAll(ctx context.Context, paths []string, concurrency int) (map[string]*Node, error) {
	results := make(map[string]*Node, len(paths))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			node, err := parseFile(path)
			if err != nil {
				slog.Warn("dropping unparseable JSON file", "path", path, "error", err)
				return nil
			}
			mu.Lock()
			results[path] = node
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var node Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	node.SourcePath = path
	return &node, nil
}
