// Package habrender implements the script renderer interface: a small, shell-agnostic contract a template implements to turn a
// resolved environment and alias set into an executable script. The engine
// itself never dictates template syntax, only the ordered data and the
// escape/join helpers a renderer builds on.
package habrender

import (
	"io"
	"sort"
	"strings"

	"github.com/hab-tool/hab/internal/habforest"
	"github.com/hab-tool/hab/internal/habplatform"
)

// Op names an environment operation a renderer must emit. Prepend/append
// are already collapsed into a final string by the time a FlatConfig
// reaches a renderer, so only Set and Unset remain.
const (
	OpSet = "set"
	OpUnset = "unset"
)

// EnvOp is one (op, name, value?) tuple iter_env_ops hands a renderer.
// Value is meaningful only when Op is OpSet.
type EnvOp struct {
	Op string
	Name string
	Value string
}

// Alias is one (name, cmd, scoped_env?) tuple iter_aliases hands a
// renderer: a resolved alias command plus the env ops that must apply only
// for its invocation.
type Alias struct {
	Name string
	Cmd habforest.CmdValue
	ScopedEnv []EnvOp
}

// Renderer is the contract a shell-specific template implements.
type Renderer interface {
	// Render writes a complete script to w: every env op applied, then one
	// function/wrapper per alias that applies its scoped environment,
	// invokes its command with forwarded arguments, and fully restores the
	// prior environment (including vars the alias unset) before returning.
	Render(w io.Writer, envOps []EnvOp, aliases []Alias) error
}

// IterEnvOps returns resolved, name-sorted so renderer output is
// reproducible across runs. unset lists variables that must be removed
// from the environment entirely (e.g. inherited vars a config explicitly
// unset with no later write); set holds every variable with a final
// value.
func IterEnvOps(set map[string]string, unset []string) []EnvOp {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	unsetSorted := append([]string{}, unset...)
	sort.Strings(unsetSorted)

	ops := make([]EnvOp, 0, len(names)+len(unsetSorted))
	for _, name := range unsetSorted {
		ops = append(ops, EnvOp{Op: OpUnset, Name: name})
	}
	for _, name := range names {
		ops = append(ops, EnvOp{Op: OpSet, Name: name, Value: set[name]})
	}
	return ops
}

// IterAliases returns aliases sorted by name.
func IterAliases(aliases map[string]Alias) []Alias {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Alias, len(names))
	for i, name := range names {
		out[i] = aliases[name]
	}
	return out
}

// Escape quotes/escapes a literal value for platform's shell.
func Escape(platform habplatform.Platform, s string) string {
	return platform.Escape(s)
}

// JoinArgv escapes and joins argv into one shell-safe command line.
func JoinArgv(platform habplatform.Platform, argv []string) string {
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = platform.Escape(a)
	}
	return strings.Join(out, " ")
}

// Argv normalizes a CmdValue into an argv slice: List is used verbatim,
// Str becomes a single-element argv (the shell is responsible for any
// further splitting when the renderer emits it unescaped as a command
// line, see bash.Render).
func Argv(cmd habforest.CmdValue) []string {
	if cmd.List != nil {
		return cmd.List
	}
	return []string{cmd.Str}
}
