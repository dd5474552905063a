package cli

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habrender"
)

var launchCmd = &cobra.Command{
	Use: "launch <URI> <alias> [-- args...]",
	Short: "Resolve a URI and exec one of its aliases",
	Args: cobra.MinimumNArgs(2),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
}

// launchExitCode, when non-negative, is the launched program's own exit
// code: hab launch forwards it unchanged, taking priority over the
// standard error-code table for this command only, so Execute() consults
// this instead of extractExitCode whenever it is set.
var launchExitCode = -1

func runLaunch(cmd *cobra.Command, args []string) error {
	uri, alias := args[0], args[1]
	forwarded := args[2:]

	result, err := resolve(cmd.Context(), cmd, uri)
	if err != nil {
		return err
	}

	a, ok := result.Aliases[alias]
	if !ok {
		return errUnknownAlias(result.Flat.URI, alias)
	}

	platform, err := currentPlatform()
	if err != nil {
		return hab.NewError("determining current platform", err)
	}

	freeze, err := encodeFreeze(cmd, platform, result.Flat.URI, result)
	if err != nil {
		return err
	}

	env := reservedEnv(result.Env, result.Flat.URI, freeze)
	if a.Environment != nil {
		if flat, ok := a.Environment.ForPlatform(string(platform.Name())); ok {
			for k, v := range flat.Set {
				env[k] = v
			}
			for _, k := range flat.Unset {
				delete(env, k)
			}
		}
	}

	argv := append(append([]string{}, habrender.Argv(a.Cmd)...), forwarded...)
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return hab.NewError("launch: alias "+alias, err)
	}

	envSlice := make([]string, 0, len(env))
	for k, v := range env {
		envSlice = append(envSlice, k+"="+v)
	}

	child := exec.Command(bin, argv[1:]...)
	child.Env = envSlice
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				launchExitCode = status.ExitStatus()
				return nil
			}
		}
		return hab.NewError("launch: running alias "+alias, err)
	}
	launchExitCode = 0
	return nil
}
