// Package habversion implements PEP-440-shaped version parsing, ordering,
// and specifier matching, grounded on the public-domain PEP 440 reference
// regular expression (packaging project's VERSION_PATTERN). hab uses this
// for distro versions and the requirement solver's specifier matching.
package habversion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed PEP-440-style version identifier:
// [N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local].
type Version struct {
	Epoch int
	Release []int
	Pre *PreRelease
	Post *int
	Dev *int
	Local []string

	raw string
}

// PreRelease is the pre-release segment of a version (alpha/beta/rc).
type PreRelease struct {
	L string // "a", "b", or "rc"
	N int
}

// IsPreRelease reports whether this version has a pre-release or dev
// segment — the signal the solver uses to exclude it unless prereleases
// are enabled or no final release satisfies the requirement.
func (v *Version) IsPreRelease() bool {
	return v.Pre != nil || v.Dev != nil
}

// String returns the version string as it was parsed, with surrounding
// whitespace trimmed; it is not normalized.
func (v *Version) String() string { return v.raw }

var versionPattern = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?:[-_.]?(?P<prel>a|b|c|rc|alpha|beta|pre|preview)[-_.]?(?P<pren>[0-9]+)?)?` +
	`(?:(?:-(?P<postn1>[0-9]+))|(?:[-_.]?(?P<postl>post|rev|r)[-_.]?(?P<postn2>[0-9]+)?))?` +
	`(?:[-_.]?(?P<devl>dev)[-_.]?(?P<devn>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?` +
	`\s*$`)

// Parse parses a PEP-440-style version string. Invalid strings return an
// error; the distro forest loader drops the offending distro and warns
// rather than treating this as fatal.
func Parse(s string) (*Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid version: %q", s)
	}
	names := versionPattern.SubexpNames()
	group := func(name string) string {
		for i, n := range names {
			if n == name && i < len(m) {
				return m[i]
			}
		}
		return ""
	}

	v := &Version{raw: strings.TrimSpace(s)}

	if epoch := group("epoch"); epoch != "" {
		n, err := strconv.Atoi(epoch)
		if err != nil {
			return nil, fmt.Errorf("invalid epoch in %q: %w", s, err)
		}
		v.Epoch = n
	}

	for _, seg := range strings.Split(group("release"), ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return nil, fmt.Errorf("invalid release segment in %q: %w", s, err)
		}
		v.Release = append(v.Release, n)
	}

	if l := group("prel"); l != "" {
		canon := canonicalPreLetter(strings.ToLower(l))
		n := 0
		if ns := group("pren"); ns != "" {
			var err error
			n, err = strconv.Atoi(ns)
			if err != nil {
				return nil, fmt.Errorf("invalid pre-release number in %q: %w", s, err)
			}
		}
		v.Pre = &PreRelease{L: canon, N: n}
	}

	postNum := group("postn1") + group("postn2")
	if postL := group("postl"); postL != "" || postNum != "" {
		n := 0
		if postNum != "" {
			var err error
			n, err = strconv.Atoi(postNum)
			if err != nil {
				return nil, fmt.Errorf("invalid post-release number in %q: %w", s, err)
			}
		}
		v.Post = &n
	}

	if devL := group("devl"); devL != "" {
		n := 0
		if ns := group("devn"); ns != "" {
			var err error
			n, err = strconv.Atoi(ns)
			if err != nil {
				return nil, fmt.Errorf("invalid dev-release number in %q: %w", s, err)
			}
		}
		v.Dev = &n
	}

	if local := group("local"); local != "" {
		v.Local = strings.FieldsFunc(strings.ToLower(local), func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		})
	}

	return v, nil
}

func canonicalPreLetter(l string) string {
	switch l {
	case "a", "alpha":
		return "a"
	case "b", "beta":
		return "b"
	case "c", "rc", "pre", "preview":
		return "rc"
	default:
		return l
	}
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater than
// other, following PEP 440 ordering: epoch, then release segments
// (zero-padded), then pre/post/dev (dev < pre < release < post), then
// local version (present sorts after absent).
func Compare(v, other *Version) int {
	if c := intCompare(v.Epoch, other.Epoch); c != 0 {
		return c
	}
	if c := compareRelease(v.Release, other.Release); c != 0 {
		return c
	}
	if c := compareSubPhase(v, other); c != 0 {
		return c
	}
	return compareLocal(v.Local, other.Local)
}

func intCompare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareRelease(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if c := intCompare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// phaseRank orders the dev/pre/final/post spectrum: dev releases sort
// before pre-releases, pre-releases sort before the final release, and the
// final release sorts before post-releases.
func phaseRank(v *Version) (int, int) {
	switch {
	case v.Dev != nil && v.Pre == nil && v.Post == nil:
		return 0, *v.Dev
	case v.Pre != nil:
		preRank := map[string]int{"a": 0, "b": 1, "rc": 2}[v.Pre.L]
		base := 10 + preRank*1000 + v.Pre.N
		if v.Dev != nil {
			return 1, base // pre+dev sorts just before the bare pre-release
		}
		return 2, base
	case v.Post != nil:
		return 4, *v.Post
	default:
		return 3, 0
	}
}

func compareSubPhase(v, other *Version) int {
	vPhase, vN := phaseRank(v)
	oPhase, oN := phaseRank(other)
	if c := intCompare(vPhase, oPhase); c != 0 {
		return c
	}
	return intCompare(vN, oN)
}

func compareLocal(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return -1 // absent local version sorts lower than any present one
	}
	if len(b) == 0 {
		return 1
	}
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if i >= len(a) {
			return -1
		}
		if i >= len(b) {
			return 1
		}
		av, bv := a[i], b[i]
		aNum, aIsNum := asInt(av)
		bNum, bIsNum := asInt(bv)
		switch {
		case aIsNum && bIsNum:
			if c := intCompare(aNum, bNum); c != 0 {
				return c
			}
		case aIsNum:
			return 1 // numeric segments sort after alphanumeric ones
		case bIsNum:
			return -1
		default:
			if c := strings.Compare(av, bv); c != 0 {
				return c
			}
		}
	}
	return 0
}

func asInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Less reports whether v sorts strictly before other.
func Less(v, other *Version) bool { return Compare(v, other) < 0 }
