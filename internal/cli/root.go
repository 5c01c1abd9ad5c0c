// Package cli implements the studybeats command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/studybeats/internal/app"
	"github.com/tejashwikalptaru/studybeats/internal/config"
)

// globals holds the persistent flags and the configuration they produce.
type globals struct {
	cfgFile string
	engine  string
	storage string
	verbose bool

	cfg *config.Config
}

// NewRootCommand builds the command tree. Each call returns an independent tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "studybeats",
		Short: "Play study music playlists from the command line",
		Long: `StudyBeats plays playlists of remote audio tracks and remembers the
playlist, playback mode and volume between runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.initConfig()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.cfgFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/studybeats/config.toml)")
	rootCmd.PersistentFlags().StringVar(&g.engine, "engine", "", "playback engine: stream or mock")
	rootCmd.PersistentFlags().StringVar(&g.storage, "storage", "", "session storage: sqlite, preferences or memory")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newPlayCmd(g),
		newStatusCmd(g),
		newResetCmd(g),
		newScanCmd(g),
		newVersionCmd(g),
	)
	return rootCmd
}

func (g *globals) initConfig() error {
	cfg, err := config.Load(g.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if g.engine != "" {
		cfg.Engine.Kind = g.engine
	}
	if g.storage != "" {
		cfg.Storage.Backend = g.storage
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	g.cfg = cfg
	return nil
}

// newApp builds the application for one command. Notices go to out, logs to stderr.
func (g *globals) newApp(cmd *cobra.Command, out io.Writer) (*app.Application, error) {
	return app.NewApplication(app.Options{
		Config:    g.cfg,
		Output:    out,
		LogOutput: cmd.ErrOrStderr(),
	})
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
