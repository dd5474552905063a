// Package habfreeze implements the freeze codec: a
// self-contained, opaque serialization of a resolved FlatConfig for every
// supported platform, reversible on another host given the same
// platform_path_maps.
package habfreeze

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habplatform"
)

// FormatVersion is the current freeze wire format version, embedded as the
// `vN:` prefix of every encoded freeze.
const FormatVersion = 1

// AliasFrozen is one alias's frozen shape: unexpanded scoped environment
// (expanded only when the alias is actually invoked) plus distro
// provenance.
type AliasFrozen struct {
	Cmd habforest.CmdValue `json:"cmd"`
	Environment *habforest.Operations `json:"environment,omitempty"`
	DistroName string `json:"distro_name"`
	DistroVersion string `json:"distro_version"`
}

// Freeze is the logical structure describes, for every
// supported platform at once.
type Freeze struct {
	Version int `json:"version"`
	URI string `json:"uri"`
	Name string `json:"name"`
	Versions [][2]string `json:"versions"`
	Environment map[string]map[string]string `json:"environment"`
	Aliases map[string]map[string]AliasFrozen `json:"aliases"`
}

// PathMaps is site.platform_path_maps: mapping name -> platform -> the
// current-platform value that prefix-matching strings get sigil-encoded
// against.
type PathMaps map[string]map[habplatform.Name]string

// Encode serializes f to canonical JSON, applies platform_path_maps sigil
// substitution (relative to encodePlatform, the host doing the freezing),
// compresses, base64-encodes, and prefixes with the format version.
func Encode(f *Freeze, maps PathMaps, encodePlatform habplatform.Name) (string, error) {
	clone := cloneFreeze(f)
	if clone.Version == 0 {
		clone.Version = FormatVersion
	}
	applySigils(clone, maps, encodePlatform, true)

	data, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("encoding freeze: %w", err)
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("compressing freeze: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("compressing freeze: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compressing freeze: %w", err)
	}

	encoded := base64.URLEncoding.EncodeToString(buf.Bytes())
	return fmt.Sprintf("v%d:%s", FormatVersion, encoded), nil
}

// Decode reverses Encode, rewriting sigils against decodePlatform (the host
// rehydrating the freeze, which may differ from the host that encoded it).
func Decode(s string, maps PathMaps, decodePlatform habplatform.Name) (*Freeze, error) {
	prefixEnd := strings.IndexByte(s, ':')
	if prefixEnd < 1 || s[0] != 'v' {
		return nil, &hab.FreezeDecodeError{Msg: "malformed freeze: missing version prefix"}
	}
	version, err := strconv.Atoi(s[1:prefixEnd])
	if err != nil {
		return nil, &hab.FreezeDecodeError{Msg: "malformed freeze: invalid version prefix"}
	}
	if version != FormatVersion {
		return nil, &hab.FreezeDecodeError{Msg: fmt.Sprintf("unsupported freeze format version %d", version)}
	}

	raw, err := base64.URLEncoding.DecodeString(s[prefixEnd+1:])
	if err != nil {
		return nil, &hab.FreezeDecodeError{Msg: "malformed freeze: invalid base64: " + err.Error()}
	}

	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &hab.FreezeDecodeError{Msg: "malformed freeze: decompression failed: " + err.Error()}
	}

	var f Freeze
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &hab.FreezeDecodeError{Msg: "malformed freeze: invalid JSON: " + err.Error()}
	}

	applySigils(&f, maps, decodePlatform, false)
	return &f, nil
}

func cloneFreeze(f *Freeze) *Freeze {
	out := &Freeze{
		Version: f.Version,
		URI: f.URI,
		Name: f.Name,
		Versions: append([][2]string{}, f.Versions...),
	}
	out.Environment = make(map[string]map[string]string, len(f.Environment))
	for platform, vars := range f.Environment {
		copied := make(map[string]string, len(vars))
		for k, v := range vars {
			copied[k] = v
		}
		out.Environment[platform] = copied
	}
	out.Aliases = make(map[string]map[string]AliasFrozen, len(f.Aliases))
	for platform, aliases := range f.Aliases {
		copied := make(map[string]AliasFrozen, len(aliases))
		for name, a := range aliases {
			copied[name] = a
		}
		out.Aliases[platform] = copied
	}
	return out
}
