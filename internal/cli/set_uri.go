package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hab-tool/hab/internal/hab"
	"github.com/hab-tool/hab/internal/habprefs"
)

var setURICmd = &cobra.Command{
	Use: "set-uri [URI]",
	Short: "Print or set the last saved URI preference",
	Args: cobra.MaximumNArgs(1),
	RunE: runSetURI,
}

func init() {
	rootCmd.AddCommand(setURICmd)
}

func runSetURI(cmd *cobra.Command, args []string) error {
	path, err := habprefs.Path()
	if err != nil {
		return hab.NewError("resolving prefs path", err)
	}

	if len(args) == 0 {
		p, err := habprefs.Load(path)
		if err != nil {
			return hab.NewError("loading prefs", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.LastURI)
		return nil
	}

	if err := habprefs.Save(path, habprefs.Prefs{LastURI: args[0]}); err != nil {
		return hab.NewError("saving prefs", err)
	}
	return nil
}
