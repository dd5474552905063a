package cli

import (
	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habrender"
	"github.com/hab-tool/hab/internal/habrender/bash"
)

var activateCmd = &cobra.Command{
	Use: "activate <URI>",
	Short: "Print an environment script for sourcing into the current shell",
	Args: cobra.ExactArgs(1),
	RunE: runActivate,
}

func init() {
	rootCmd.AddCommand(activateCmd)
}

func runActivate(cmd *cobra.Command, args []string) error {
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

	env := reservedEnv(result.Env, result.Flat.URI, freeze)
	envOps := habrender.IterEnvOps(env, nil)

	aliases := habrender.IterAliases(toRenderAliases(result.Aliases, platform.Name()))

	renderer := bash.New(platform)
	script, err := renderScript(renderer, envOps, aliases)
	if err != nil {
		return hab.NewError("rendering activation script", err)
	}

	_, err = cmd.OutOrStdout().Write(script)
	return err
}
