package hab

import "strings"

// Reserved environment variable names. Neither may be set or unset by a
// user config; they are produced by the engine itself.
const (
	EnvHabURI = "HAB_URI"
	EnvHabFreeze = "HAB_FREEZE"
	EnvPath = "PATH"
)

// Reserved formatter variable names. User-defined `variables` entries may
// not use these.
var ReservedFormatNames = map[string]bool{
	"relative_root": true,
	";": true,
}

// Operations is a set of environment mutations applied at one scope (a
// config node, a distro, or an alias). Exactly one of the flat fields or
// OSSpecific is meaningful at a time, mirroring the JSON wire shape:
// either a flat {unset,set,prepend,append} dict, or
// {os_specific: true, <platform>: flat...}.
type Operations struct {
	OSSpecific bool `json:"os_specific,omitempty"`

	// Flat form, used when OSSpecific is false.
	Unset []string `json:"unset,omitempty"`
	Set map[string]string `json:"set,omitempty"`
	Prepend map[string]string `json:"prepend,omitempty"`
	Append map[string]string `json:"append,omitempty"`

	// Per-platform form, used when OSSpecific is true. Keys are platform
	// names ("windows", "linux", "osx").
	Platforms map[string]FlatOperations `json:"-"`
}

// FlatOperations is the non-os_specific operations shape.
type FlatOperations struct {
	Unset []string `json:"unset,omitempty"`
	Set map[string]string `json:"set,omitempty"`
	Prepend map[string]string `json:"prepend,omitempty"`
	Append map[string]string `json:"append,omitempty"`
}

// ForPlatform returns the operations applicable to the given platform name,
// resolving the os_specific branch when present. The bool result reports
// whether any operations exist for that platform (an os_specific dict with
// no matching platform key yields ok=false).
func (o Operations) ForPlatform(platform string) (FlatOperations, bool) {
	if !o.OSSpecific {
		return FlatOperations{Unset: o.Unset, Set: o.Set, Prepend: o.Prepend, Append: o.Append}, true
	}
	flat, ok := o.Platforms[platform]
	return flat, ok
}

// IsEmpty reports whether the operations set has no entries at all.
func (o Operations) IsEmpty() bool {
	if o.OSSpecific {
		return len(o.Platforms) == 0
	}
	return len(o.Unset) == 0 && len(o.Set) == 0 && len(o.Prepend) == 0 && len(o.Append) == 0
}

// URI is an ordered, non-empty sequence of identifier segments. Identifiers
// are arbitrary non-empty strings that do not contain '/'. The literal
// string "default" is reserved as the root of the fallback tree.
type URI struct {
	Segments []string
}

// ParseURI splits a '/'-separated URI string into segments. Leading and
// trailing slashes are ignored; empty segments are rejected.
func ParseURI(s string) (URI, error) {
	s = strings.Trim(s, "/")
	if s == "" {
		return URI{}, NewError("empty URI", nil)
	}
	parts := strings.Split(s, "/")
	for _, p := range parts {
		if p == "" {
			return URI{}, NewError("URI contains an empty segment: "+s, nil)
		}
	}
	return URI{Segments: parts}, nil
}

// String renders the URI back to its canonical '/'-separated form.
func (u URI) String() string {
	return strings.Join(u.Segments, "/")
}

// Parent returns the URI with its last segment removed, and whether a
// parent exists (false at the root).
func (u URI) Parent() (URI, bool) {
	if len(u.Segments) <= 1 {
		return URI{}, false
	}
	return URI{Segments: u.Segments[:len(u.Segments)-1]}, true
}

// IsDefault reports whether this URI's first segment is the reserved
// "default" fallback root.
func (u URI) IsDefault() bool {
	return len(u.Segments) > 0 && u.Segments[0] == "default"
}

// DistroRef names one selected distro by (name, version) pair.
type DistroRef struct {
	Name string `json:"name"`
	Version string `json:"version"`
}
