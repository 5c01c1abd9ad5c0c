package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "reset",
		Aliases: []string{"signout"},
		Short:   "Stop playback and forget the saved session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a.Session().StopAndClear()
			if err := a.Shutdown(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	}
}
