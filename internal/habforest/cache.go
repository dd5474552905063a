package habforest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/hab-tool/hab/internal/hab"
)

// cacheFormatVersion is bumped whenever the on-disk shape changes in a
// backward-incompatible way.
const cacheFormatVersion = 1

// Cache is the on-disk memoization of forest discovery for one site
//. Field names are stable; unknown fields are ignored on
// decode so older caches degrade gracefully rather than erroring.
type Cache struct {
	Version int `json:"version"`
	Globs map[string]GlobCache `json:"globs"`
}

// GlobCache records the resolved file list for one glob pattern.
type GlobCache struct {
	Files []FileCache `json:"files"`
}

// FileCache records one cached JSON file's mtime, xxh3 content hash, and
// parsed contents.
type FileCache struct {
	Path string `json:"path"`
	ModTime int64 `json:"mod_time_unix_nano"`
	Hash uint64 `json:"xxh3"`
	Content json.RawMessage `json:"content"`
}

// LoadCache reads a habcache file. A missing file is not an error — it
// just means there is nothing to memoize from yet.
func LoadCache(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Cache{Version: cacheFormatVersion, Globs: map[string]GlobCache{}}, nil
		}
		return nil, fmt.Errorf("reading habcache %s: %w", path, err)
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing habcache %s: %w", path, err)
	}
	if c.Globs == nil {
		c.Globs = map[string]GlobCache{}
	}
	return &c, nil
}

// Save atomically replaces the habcache file: write to a temp file in the
// same directory, then rename, so concurrent readers never observe a
// partial write.
func Save(path string, c *Cache) error {
	c.Version = cacheFormatVersion
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return fmt.Errorf("encoding habcache: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".habcache-*")
	if err != nil {
		return fmt.Errorf("creating temp habcache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp habcache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp habcache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming habcache into place: %w", err)
	}
	return nil
}

// Valid reports whether the cached entry for path matches the file
// currently on disk: first by mtime, then by xxh3 content hash, to
// catch same-mtime-different-content edits on coarse-resolution
// filesystems.
func (fc FileCache) Valid() bool {
	info, err := os.Stat(fc.Path)
	if err != nil {
		return false
	}
	if info.ModTime().UnixNano() != fc.ModTime {
		return false
	}

	data, err := os.ReadFile(fc.Path)
	if err != nil {
		return false
	}
	return xxh3.Hash(data) == fc.Hash
}

// BuildFileCache reads path and computes its FileCache entry, used when
// populating or refreshing the cache after a live scan.
func BuildFileCache(path string) (FileCache, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileCache{}, &hab.SiteLoadError{Msg: fmt.Sprintf("stat %s: %v", path, err)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FileCache{}, &hab.SiteLoadError{Msg: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return FileCache{
		Path: path,
		ModTime: info.ModTime().UnixNano(),
		Hash: xxh3.Hash(data),
		Content: json.RawMessage(data),
	}, nil
}

// StaleReason describes why a cache entry was rejected, for the warning
// log the reader emits on fallback to a live scan.
func StaleReason(fc FileCache) string {
	info, err := os.Stat(fc.Path)
	if err != nil {
		return fmt.Sprintf("%s: no longer exists", fc.Path)
	}
	if info.ModTime().UnixNano() != fc.ModTime {
		return fmt.Sprintf("%s: mtime changed", fc.Path)
	}
	return fmt.Sprintf("%s: content hash changed", fc.Path)
}
