package habforest

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreMatcher loads .habignore files (gitignore syntax) found anywhere
// under root and prunes matching paths from a glob's results: each
// .habignore is matched against paths relative to its own directory, and a
// path is pruned if any enclosing .habignore matches it (a nearer file's
// negation does not undo an outer match).
type ignoreMatcher struct {
	root string
	matchers map[string]*gitignore.GitIgnore
	dirs []string
}

func newIgnoreMatcher(root string) *ignoreMatcher {
	m := &ignoreMatcher{root: root, matchers: map[string]*gitignore.GitIgnore{}}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != ".habignore" {
			return nil
		}

		relDir, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return nil
		}
		compiled, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			slog.Debug("skipping unreadable .habignore", "path", path, "error", err)
			return nil
		}
		if relDir == "" {
			relDir = "."
		}
		m.matchers[relDir] = compiled
		return nil
	})

	m.dirs = make([]string, 0, len(m.matchers))
	for dir := range m.matchers {
		m.dirs = append(m.dirs, dir)
	}
	sort.Strings(m.dirs)
	return m
}

// isIgnored reports whether relPath (forward-slash, relative to root)
// should be pruned from glob results.
func (m *ignoreMatcher) isIgnored(relPath string) bool {
	if len(m.dirs) == 0 {
		return false
	}
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")

	for _, dir := range m.dirs {
		if dir != "." {
			prefix := dir + "/"
			if !strings.HasPrefix(relPath, prefix) {
				continue
			}
		}
		matchPath := relPath
		if dir != "." {
			matchPath = strings.TrimPrefix(relPath, dir+"/")
		}
		if m.matchers[dir].MatchesPath(matchPath) {
			return true
		}
	}
	return false
}
