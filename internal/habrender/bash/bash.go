// Package bash is a reference habrender.Renderer producing a POSIX-ish
// bash script: the most common hab launch environment for
// the original tool. pwsh/batch renderers are external collaborators, out
// of scope here.
package bash

import (
	"fmt"
	"io"

	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/hab-tool/hab/internal/habrender"
)

// Renderer renders for bash, escaping and joining argv via platform.
type Renderer struct {
	Platform habplatform.Platform
}

// New builds a bash Renderer for platform. Platform's shell need not be
// Bash (e.g. bash-under-git-bash on windows uses windows path semantics
// with bash escaping).
func New(platform habplatform.Platform) *Renderer {
	return &Renderer{Platform: platform}
}

// Render writes envOps as export/unset statements, then one shell function
// per alias that saves every scoped-env variable's prior state, applies
// the scoped ops, runs the command with forwarded arguments, and restores
// the prior state (set or absent) before returning the command's exit
// code.
func (r *Renderer) Render(w io.Writer, envOps []habrender.EnvOp, aliases []habrender.Alias) error {
	if _, err := fmt.Fprintln(w, "#!/usr/bin/env bash"); err != nil {
		return err
	}
	if err := r.writeEnvOps(w, envOps); err != nil {
		return err
	}
	for _, alias := range aliases {
		if err := r.writeAlias(w, alias); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeEnvOps(w io.Writer, ops []habrender.EnvOp) error {
	for _, op := range ops {
		var err error
		switch op.Op {
		case habrender.OpSet:
			_, err = fmt.Fprintf(w, "export %s=%s\n", op.Name, r.Platform.Escape(op.Value))
		case habrender.OpUnset:
			_, err = fmt.Fprintf(w, "unset %s\n", op.Name)
		default:
			err = fmt.Errorf("bash renderer: unknown env op %q", op.Op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeAlias(w io.Writer, alias habrender.Alias) error {
	if _, err := fmt.Fprintf(w, "\n%s() {\n", alias.Name); err != nil {
		return err
	}
	for _, op := range alias.ScopedEnv {
		if _, err := fmt.Fprintf(w, " local __hab_had_%s=0; [ -n \"${%s+x}\" ] && __hab_had_%s=1\n", op.Name, op.Name, op.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, " local __hab_saved_%s=\"${%s-}\"\n", op.Name, op.Name); err != nil {
			return err
		}
		switch op.Op {
		case habrender.OpSet:
			if _, err := fmt.Fprintf(w, " export %s=%s\n", op.Name, r.Platform.Escape(op.Value)); err != nil {
				return err
			}
		case habrender.OpUnset:
			if _, err := fmt.Fprintf(w, " unset %s\n", op.Name); err != nil {
				return err
			}
		default:
			return fmt.Errorf("bash renderer: unknown scoped env op %q on alias %s", op.Op, alias.Name)
		}
	}

	argv := habrender.Argv(alias.Cmd)
	if alias.Cmd.List != nil {
		if _, err := fmt.Fprintf(w, " %s \"$@\"\n", habrender.JoinArgv(r.Platform, argv)); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, " %s \"$@\"\n", argv[0]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, " local __hab_status=$?"); err != nil {
		return err
	}

	for _, op := range alias.ScopedEnv {
		if _, err := fmt.Fprintf(w, " if [ \"$__hab_had_%s\" = 1 ]; then export %s=\"$__hab_saved_%s\"; else unset %s; fi\n",
			op.Name, op.Name, op.Name, op.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, " return $__hab_status"); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
