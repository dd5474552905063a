// Package habprefs persists the single piece of user preference state
// that matters here: the last URI saved via `hab set-uri`, read back by
// the `-` URI shorthand. Nothing else about user preferences is in scope.
package habprefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Prefs is the on-disk shape, one TOML document per user.
type Prefs struct {
	LastURI string `toml:"last_uri"`
}

// Path returns the prefs file location: $XDG_CONFIG_HOME/hab/prefs.toml,
// falling back to os.UserConfigDir().
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "hab", "prefs.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving prefs path: %w", err)
	}
	return filepath.Join(dir, "hab", "prefs.toml"), nil
}

// Load reads prefs from path. A missing file returns an empty Prefs, not
// an error.
func Load(path string) (Prefs, error) {
	var p Prefs
	meta, err := toml.DecodeFile(path, &p)
	if errors.Is(err, os.ErrNotExist) {
		return Prefs{}, nil
	}
	if err != nil {
		return Prefs{}, fmt.Errorf("loading prefs %s: %w", path, err)
	}
	_ = meta
	return p, nil
}

// Save writes p to path, creating its parent directory if needed, via an
// atomic rename from a temp file in the same directory so a reader never
// observes a partially written prefs file.
func Save(path string, p Prefs) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating prefs dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("writing prefs %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := toml.NewEncoder(tmp).Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding prefs %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing prefs %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("writing prefs %s: %w", path, err)
	}
	return nil
}
