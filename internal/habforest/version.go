package habforest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hab-tool/hab/internal/habversion"
)

// ResolveVersion determines a distro's version as the first of: the JSON `version` field, a sidecar version file, the parent
// directory name, or an SCM-derived version. The parent directory name is
// kept only when it parses as a version; otherwise the SCM version is tried.
// The chosen candidate is validated as a PEP-440-style version, and an
// invalid one is the final error (the caller drops the distro and warns).
func ResolveVersion(node *Node, dir string) (string, error) {
	candidate := node.Version
	source := "version field"

	if candidate == "" {
		if v, ok := readSidecarVersion(dir); ok {
			candidate, source = v, "sidecar version file"
		}
	}
	if candidate == "" {
		candidate, source = filepath.Base(dir), "parent directory name"
		if _, err := habversion.Parse(candidate); err != nil {
			if v, ok := scmVersion(dir); ok {
				candidate, source = v, "scm tag"
			}
		}
	}

	v, err := habversion.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("invalid version %q (from %s): %w", candidate, source, err)
	}
	return v.String(), nil
}

// readSidecarVersion looks for a plain-text "VERSION" or ".hab-version"
// file next to the distro's JSON document.
func readSidecarVersion(dir string) (string, bool) {
	for _, name := range []string{"VERSION", ".hab-version"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		v := strings.TrimSpace(string(data))
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// scmVersion shells out to `git describe --tags`; a non-git directory or
// missing git binary is not an error here, just a missed candidate.
func scmVersion(dir string) (string, bool) {
	cmd := exec.Command("git", "describe", "--tags", "--always")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(out))
	return v, v != ""
}
