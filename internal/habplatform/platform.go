// Package habplatform provides the injectable cross-platform abstraction
// requires: tests exercise windows behavior on linux and vice
// versa by swapping the Platform implementation rather than the host OS.
package habplatform

import (
	"fmt"
	"strings"
)

// Name identifies one of the platforms a site can support.
type Name string

const (
	Windows Name = "windows"
	Linux Name = "linux"
	OSX Name = "osx"
)

// All enumerates every platform name hab understands, in the order they
// are iterated for freeze encoding.
var All = []Name{Windows, Linux, OSX}

// Valid reports whether n is one of the three supported platform names.
func (n Name) Valid() bool {
	switch n {
	case Windows, Linux, OSX:
		return true
	default:
		return false
	}
}

// ListSep returns the separator joining entries of a PATH-like variable for
// this platform: ';' on windows, ':' elsewhere. This is the separator the
// `{;}` formatter token expands to.
func (n Name) ListSep() byte {
	if n == Windows {
		return ';'
	}
	return ':'
}

// PathSep returns the filesystem path separator for this platform: '\\' on
// windows, '/' elsewhere.
func (n Name) PathSep() byte {
	if n == Windows {
		return '\\'
	}
	return '/'
}

// Platform is the full injectable environment hab's composer and renderers
// depend on: the target OS plus the shell used to express env-var
// references and escaping. A single OS can host more than one shell (e.g.
// bash under git-bash on windows), so Shell is independent of Name. This
// satisfies "cross-platform simulation" object: name, path_sep,
// list_sep, env_ref, escape.
type Platform interface {
	Name() Name
	Shell() Shell
	PathSep() byte
	ListSep() byte
	// EnvRef renders a platform-specific environment variable reference,
	// used by the `{NAME!e}` formatter token: "$NAME", "%NAME%", or
	// "$env:NAME" depending on Shell.
	EnvRef(name string) string
	// Escape quotes/escapes a literal value for inclusion in a script for
	// this platform's shell.
	Escape(s string) string
}

// Shell identifies the shell dialect used to render env-var references and
// escaping, independent of the host OS.
type Shell string

const (
	Bash Shell = "bash"
	Pwsh Shell = "pwsh"
	Batch Shell = "batch"
)

// Default returns the conventional Platform for a given OS name: bash on
// linux/osx, batch on windows. Use New to pick a different shell (e.g. pwsh
// or bash-under-git-bash on windows) for the same OS.
func Default(n Name) (Platform, error) {
	switch n {
	case Windows:
		return New(Windows, Batch)
	case Linux:
		return New(Linux, Bash)
	case OSX:
		return New(OSX, Bash)
	default:
		return nil, fmt.Errorf("unknown platform: %q", n)
	}
}

// New builds a Platform for an explicit (OS, shell) pair.
func New(n Name, shell Shell) (Platform, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("unknown platform: %q", n)
	}
	switch shell {
	case Bash, Pwsh, Batch:
		return concretePlatform{name: n, shell: shell}, nil
	default:
		return nil, fmt.Errorf("unknown shell: %q", shell)
	}
}

type concretePlatform struct {
	name Name
	shell Shell
}

func (p concretePlatform) Name() Name { return p.name }
func (p concretePlatform) Shell() Shell { return p.shell }
func (p concretePlatform) PathSep() byte { return p.name.PathSep() }
func (p concretePlatform) ListSep() byte { return p.name.ListSep() }

func (p concretePlatform) EnvRef(name string) string {
	switch p.shell {
	case Batch:
		return "%" + name + "%"
	case Pwsh:
		return "$env:" + name
	default: // Bash
		return "$" + name
	}
}

func (p concretePlatform) Escape(s string) string {
	switch p.shell {
	case Batch:
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	case Pwsh:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	default: // Bash
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
}
