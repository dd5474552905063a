// Package habenv implements the environment composer: it
// merges unset/set/prepend/append operations from a FlatConfig and its
// selected distros, in solve order, applying a first-write-wins rule per
// variable, and expands the `{...}` formatter tokens values may contain.
package habenv

import (
	"fmt"
	"regexp"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habplatform"
)

// Formatter expands the `{...}` tokens defines within one
// layer's operation values: `{relative_root}`, `{;}`, `{NAME!e}`, and
// `{key}` lookups into a set of user variables.
type Formatter struct {
	platform habplatform.Platform
	relativeRoot string
	variables map[string]string
}

var tokenPattern = regexp.MustCompile(`\{([^{}]*)\}`)
var envRefPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)!e$`)

// NewFormatter builds a Formatter for one layer. variables must not contain
// a reserved formatter name rejected").
func NewFormatter(platform habplatform.Platform, relativeRoot string, variables map[string]string) (*Formatter, error) {
	for k := range variables {
		if hab.ReservedFormatNames[k] {
			return nil, &hab.ReservedVariableNameError{Msg: fmt.Sprintf("variable name %q is reserved", k)}
		}
	}
	return &Formatter{platform: platform, relativeRoot: relativeRoot, variables: variables}, nil
}

// Expand replaces every `{...}` token in s. A `{key}` token whose key is not
// a recognized built-in and not present in the formatter's variables is
// left unexpanded.
func (f *Formatter) Expand(s string) string {
	return tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		inner := tok[1 : len(tok)-1]

		switch {
		case inner == ";":
			return string(f.platform.ListSep())
		case inner == "relative_root":
			return f.relativeRoot
		}

		if m := envRefPattern.FindStringSubmatch(inner); m != nil {
			return f.platform.EnvRef(m[1])
		}

		if v, ok := f.variables[inner]; ok {
			return v
		}
		return tok
	})
}
