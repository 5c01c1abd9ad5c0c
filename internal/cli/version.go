package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/studybeats/internal/app"
)

func newVersionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Skip config loading so a broken config file does not hide the version.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			info := app.GetVersionInfo()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, info.FullString())
			if g.verbose {
				fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
				fmt.Fprintf(out, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
