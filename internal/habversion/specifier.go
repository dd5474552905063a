package habversion

import (
	"fmt"
	"regexp"
	"strings"
)

// Specifier is a single PEP-440-style version constraint: an operator plus
// a version string, e.g. ">=1.2", "==2.0.*", "~=1.4".
type Specifier struct {
	Op string
	Ver string

	parsed *Version // nil for wildcard/arbitrary-equality specifiers
}

var specifierPattern = regexp.MustCompile(`^\s*(~=|==|!=|<=|>=|<|>|===)\s*(.+?)\s*$`)

// ParseSpecifier parses a single "<op><version>" specifier.
func ParseSpecifier(s string) (Specifier, error) {
	m := specifierPattern.FindStringSubmatch(s)
	if m == nil {
		return Specifier{}, fmt.Errorf("invalid specifier: %q", s)
	}
	spec := Specifier{Op: m[1], Ver: m[2]}
	if spec.Op == "===" {
		return spec, nil // arbitrary equality: literal string compare, never parsed
	}
	if !strings.HasSuffix(spec.Ver, ".*") {
		v, err := Parse(spec.Ver)
		if err != nil {
			return Specifier{}, fmt.Errorf("invalid specifier version %q: %w", s, err)
		}
		spec.parsed = v
	}
	return spec, nil
}

// ParseSpecifierSet parses a comma-separated list of specifiers, the form
// used in a distro requirement string ("name>=1.0,<2.0").
func ParseSpecifierSet(s string) ([]Specifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Specifier, 0, len(parts))
	for _, p := range parts {
		spec, err := ParseSpecifier(p)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

// Matches reports whether v satisfies this single specifier.
func (s Specifier) Matches(v *Version) bool {
	switch s.Op {
	case "===":
		return v.raw == s.Ver
	case "==":
		if strings.HasSuffix(s.Ver, ".*") {
			return matchesWildcardPrefix(v, strings.TrimSuffix(s.Ver, ".*"))
		}
		return Compare(v, s.parsed) == 0 && localEqual(v, s.parsed)
	case "!=":
		if strings.HasSuffix(s.Ver, ".*") {
			return !matchesWildcardPrefix(v, strings.TrimSuffix(s.Ver, ".*"))
		}
		return !(Compare(v, s.parsed) == 0 && localEqual(v, s.parsed))
	case "<=":
		return Compare(v, s.parsed) <= 0
	case ">=":
		return Compare(v, s.parsed) >= 0
	case "<":
		return Compare(v, s.parsed) < 0 && !sameReleasePrefix(v, s.parsed)
	case ">":
		return Compare(v, s.parsed) > 0 && !sameReleasePrefix(v, s.parsed)
	case "~=":
		// Compatible release: >= the given version, == through all but the
		// last release segment.
		if len(s.parsed.Release) < 2 {
			return false
		}
		prefix := s.parsed.Release[:len(s.parsed.Release)-1]
		return Compare(v, s.parsed) >= 0 && releaseHasPrefix(v.Release, prefix)
	default:
		return false
	}
}

func localEqual(v, other *Version) bool {
	if len(other.Local) == 0 {
		return true // a bare specifier version ignores the candidate's local label
	}
	return strings.Join(v.Local, ".") == strings.Join(other.Local, ".")
}

func matchesWildcardPrefix(v *Version, prefix string) bool {
	prefixSegs := strings.Split(prefix, ".")
	for i, seg := range prefixSegs {
		seg = strings.TrimPrefix(seg, "v")
		if i >= len(v.Release) {
			return false
		}
		if fmt.Sprint(v.Release[i]) != seg {
			return false
		}
	}
	return true
}

func releaseHasPrefix(release, prefix []int) bool {
	if len(release) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if release[i] != p {
			return false
		}
	}
	return true
}

// sameReleasePrefix implements the PEP 440 exclusive-ordered-comparison
// rule: `<V` / `>V` exclude pre/post/local versions of V itself, not just
// values that compare strictly less/greater.
func sameReleasePrefix(v, other *Version) bool {
	return compareRelease(v.Release, other.Release) == 0
}

// SpecifierSet is a conjunction of specifiers (all must match), as
// accumulated across every requirement naming the same distro.
type SpecifierSet []Specifier

// Matches reports whether v satisfies every specifier in the set.
func (set SpecifierSet) Matches(v *Version) bool {
	for _, s := range set {
		if !s.Matches(v) {
			return false
		}
	}
	return true
}

// String renders the specifier set back to its comma-joined form.
func (set SpecifierSet) String() string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = s.Op + s.Ver
	}
	return strings.Join(parts, ",")
}
