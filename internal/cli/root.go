// Package cli implements the Cobra command hierarchy for the hab CLI tool.
// The root command defined here is the entry point for all subcommands and
// handles cross-cutting concerns like logging initialization and error
// handling.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
)

// GlobalFlags holds the parsed global flag values shared by every
// subcommand, bound once on rootCmd's persistent flag set.
type GlobalFlags struct {
	Sites []string
	Prefs bool
	NoPrefs bool
	SavePrefs bool
	Verbose int
	Requirements []string
	LoggingConfig string
}

var flags = &GlobalFlags{}

var rootCmd = &cobra.Command{
	Use: "hab",
	Short: "Resolve task URIs into fully-specified workstation environments.",
	Long: `hab resolves a slash-separated task URI into a fully-specified
environment: resolved distro versions, composed environment variables, and
composed command aliases, ready to render into a shell script or launch
directly.`,
	SilenceUsage: true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := hab.ResolveLogLevel(flags.Verbose)
		format := hab.ResolveLogFormat()
		hab.SetupLogging(level, format)
		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
}

func init() {
	bindGlobalFlags(rootCmd)
}

func bindGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringArrayVar(&flags.Sites, "site", nil, "site file path (repeatable)")
	cmd.PersistentFlags().BoolVar(&flags.Prefs, "prefs", false, "enable reading/writing saved preferences")
	cmd.PersistentFlags().BoolVar(&flags.NoPrefs, "no-prefs", false, "disable preferences even if configured on")
	cmd.PersistentFlags().BoolVar(&flags.SavePrefs, "save-prefs", false, "save the resolved URI as the last-used preference")
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "increase log verbosity (-v, -vv)")
	cmd.PersistentFlags().StringArrayVarP(&flags.Requirements, "requirement", "r", nil, "extra requirement string (repeatable)")
	cmd.PersistentFlags().StringVar(&flags.LoggingConfig, "logging-config", "", "path to a logging configuration file")
}

// Execute runs the root command and returns the process exit code. For hab
// launch, the launched program's own exit code takes priority over the
// standard table.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return extractExitCode(err)
	}
	if launchExitCode >= 0 {
		return launchExitCode
	}
	return int(hab.ExitSuccess)
}

// extractExitCode maps err to its process exit code. A *hab.Error carries
// its code directly; the well-known error kinds (DuplicateJSONError,
// InvalidRequirementError, ReservedEnvVarError, URIUnresolvedError,
// FreezeDecodeError, SiteLoadError) are returned bare by the components
// that produce them, so they're matched here too. Anything else returns
// the generic ExitError.
func extractExitCode(err error) int {
	if err == nil {
		return int(hab.ExitSuccess)
	}

	var habErr *hab.Error
	if errors.As(err, &habErr) {
		return int(habErr.Code)
	}

	var duplicateJSON *hab.DuplicateJSONError
	if errors.As(err, &duplicateJSON) {
		return int(hab.ExitDuplicateJSON)
	}
	var invalidRequirement *hab.InvalidRequirementError
	if errors.As(err, &invalidRequirement) {
		return int(hab.ExitInvalidRequirement)
	}
	var reservedVariableName *hab.ReservedVariableNameError
	if errors.As(err, &reservedVariableName) {
		return int(hab.ExitReservedEnvVar)
	}
	var reservedEnvVar *hab.ReservedEnvVarError
	if errors.As(err, &reservedEnvVar) {
		return int(hab.ExitReservedEnvVar)
	}
	var uriUnresolved *hab.URIUnresolvedError
	if errors.As(err, &uriUnresolved) {
		return int(hab.ExitURIUnresolved)
	}
	var freezeDecode *hab.FreezeDecodeError
	if errors.As(err, &freezeDecode) {
		return int(hab.ExitFreezeDecode)
	}
	var siteLoad *hab.SiteLoadError
	if errors.As(err, &siteLoad) {
		return int(hab.ExitSiteLoad)
	}

	return int(hab.ExitError)
}

// RootCmd returns the root cobra.Command, for testing and subcommand
// registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// Flags returns the parsed global flag values. Available after
// PersistentPreRunE has run.
func Flags() *GlobalFlags {
	return flags
}

// prefsEnabled reports whether preference persistence is active for this
// invocation: an explicit --prefs/--no-prefs flag wins over site's own
// default.
func prefsEnabled(cmd *cobra.Command, siteDefault bool) bool {
	if cmd.Flags().Changed("no-prefs") && flags.NoPrefs {
		return false
	}
	if cmd.Flags().Changed("prefs") {
		return flags.Prefs
	}
	return siteDefault
}
