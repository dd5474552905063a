package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habalias"
	"github.com/hab-tool/hab/internal/habplatform"
	"github.com/hab-tool/hab/internal/habrender"
	"github.com/hab-tool/hab/internal/habrender/bash"
)

var (
	envLaunchAlias string
	envDumpScripts bool
	envScriptDir string
	envScriptExt string
)

var envCmd = &cobra.Command{
	Use: "env <URI>",
	Short: "Resolve a URI and write its environment/alias scripts",
	Args: cobra.ExactArgs(1),
	RunE: runEnv,
}

func init() {
	envCmd.Flags().StringVar(&envLaunchAlias, "launch", "", "alias name whose invocation script to write as hab_launch")
	envCmd.Flags().BoolVar(&envDumpScripts, "dump-scripts", false, "print the rendered scripts to stdout instead of writing files")
	envCmd.Flags().StringVar(&envScriptDir, "script-dir", ".", "directory to write hab_config/hab_launch into")
	envCmd.Flags().StringVar(&envScriptExt, "script-ext", "sh", "extension for written script files")
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	result, err := resolve(cmd.Context(), cmd, args[0])
	if err != nil {
		return err
	}

	platform, err := currentPlatform()
	if err != nil {
		return hab.NewError("determining current platform", err)
	}
	freeze, err := encodeFreeze(cmd, platform, args[0], result)
	if err != nil {
		return err
	}

	renderer := bash.New(platform)
	env := reservedEnv(result.Env, result.Flat.URI, freeze)
	envOps := habrender.IterEnvOps(env, nil)

	configScript, err := renderScript(renderer, envOps, nil)
	if err != nil {
		return hab.NewError("rendering hab_config script", err)
	}

	var launchScript []byte
	if envLaunchAlias != "" {
		alias, ok := result.Aliases[envLaunchAlias]
		if !ok {
			return errUnknownAlias(result.Flat.URI, envLaunchAlias)
		}
		aliasOps := []habrender.Alias{{
			Name: alias.Name,
			Cmd: alias.Cmd,
			ScopedEnv: aliasScopedEnv(alias, platform.Name()),
		}}
		launchScript, err = renderScript(renderer, nil, aliasOps)
		if err != nil {
			return hab.NewError("rendering hab_launch script", err)
		}
	}

	if envDumpScripts {
		fmt.Fprintln(cmd.OutOrStdout(), "--- hab_config ---")
		cmd.OutOrStdout().Write(configScript)
		if launchScript != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "--- hab_launch ---")
			cmd.OutOrStdout().Write(launchScript)
		}
		return nil
	}

	if err := writeScriptFile(envScriptDir, "hab_config", envScriptExt, configScript); err != nil {
		return err
	}
	if launchScript != nil {
		if err := writeScriptFile(envScriptDir, "hab_launch", envScriptExt, launchScript); err != nil {
			return err
		}
	}
	return nil
}

// renderScript renders one script with r and returns its bytes.
func renderScript(r habrender.Renderer, envOps []habrender.EnvOp, aliases []habrender.Alias) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, envOps, aliases); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// aliasScopedEnv flattens an alias's scoped environment operations into the
// renderer's flat (op, name, value) form. Only set/unset are flattened this
// way; prepend/append onto the invoking shell's own variables are a
// runtime concern no static renderer contract can express, so aliases that
// use them keep the prepend/append values as a plain set of the
// distro-declared literal (documented simplification, see DESIGN.md).
func aliasScopedEnv(alias habalias.Alias, platform habplatform.Name) []habrender.EnvOp {
	if alias.Environment == nil {
		return nil
	}
	flat, ok := alias.Environment.ForPlatform(string(platform))
	if !ok {
		return nil
	}
	set := make(map[string]string, len(flat.Set)+len(flat.Prepend)+len(flat.Append))
	for k, v := range flat.Set {
		set[k] = v
	}
	for k, v := range flat.Prepend {
		set[k] = v
	}
	for k, v := range flat.Append {
		set[k] = v
	}
	return habrender.IterEnvOps(set, flat.Unset)
}

func writeScriptFile(dir, base, ext string, content []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return hab.NewError("creating script directory", err)
	}
	path := filepath.Join(dir, base+"."+ext)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return hab.NewError("writing "+path, err)
	}
	return nil
}
