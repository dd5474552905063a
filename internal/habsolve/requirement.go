// Package habsolve implements the requirement solver: given
// a root set of distro requirements, it deterministically picks the newest
// version of each named distro that satisfies every specifier accumulated
// for that name, recursing into each selected distro's own requirements.
package habsolve

import (
	"fmt"
	"strings"

	"github.com/hab-tool/hab/internal/habmarker"
	"github.com/hab-tool/hab/internal/habversion"
)

// Requirement is one parsed entry of a `distros` list: `name[specifier][;marker]`.
type Requirement struct {
	Name string
	Specifiers habversion.SpecifierSet
	Marker habmarker.Expr

	raw string
}

// String renders the requirement back to roughly its original form, for
// error messages.
func (r Requirement) String() string { return r.raw }

// ParseRequirement parses one requirement string. A specifier set, a
// marker, both, or neither may be present.
func ParseRequirement(s string) (Requirement, error) {
	raw := s
	s = strings.TrimSpace(s)

	markerPart := ""
	if idx := strings.Index(s, ";"); idx >= 0 {
		markerPart = strings.TrimSpace(s[idx+1:])
		s = strings.TrimSpace(s[:idx])
	}

	name, specPart := splitNameAndSpecifier(s)
	if name == "" {
		return Requirement{}, fmt.Errorf("invalid requirement %q: missing name", raw)
	}

	var specs habversion.SpecifierSet
	if specPart != "" {
		parsed, err := habversion.ParseSpecifierSet(specPart)
		if err != nil {
			return Requirement{}, fmt.Errorf("invalid requirement %q: %w", raw, err)
		}
		specs = parsed
	}

	var marker habmarker.Expr
	if markerPart != "" {
		parsed, err := habmarker.Parse(markerPart)
		if err != nil {
			return Requirement{}, fmt.Errorf("invalid requirement %q: %w", raw, err)
		}
		marker = parsed
	}

	return Requirement{Name: name, Specifiers: specs, Marker: marker, raw: raw}, nil
}

// splitNameAndSpecifier splits "name>=1.0,<2.0" into ("name", ">=1.0,<2.0").
// The name is the leading run of identifier characters; anything from the
// first specifier operator onward is the specifier part.
func splitNameAndSpecifier(s string) (name, spec string) {
	cut := strings.IndexAny(s, "=!<>~")
	if cut < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:cut]), strings.TrimSpace(s[cut:])
}
