package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/service"
)

// timestamped is implemented by stores that record when a key was written.
type timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved session",
		Long:  `Prints the playlist, playback mode and volume that the next run will restore.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, g)
		},
	}
}

func runStatus(cmd *cobra.Command, g *globals) error {
	out := &syncWriter{w: cmd.OutOrStdout()}

	a, err := g.newApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown() }()

	ctx := cmd.Context()
	key := a.Config().Storage.Key

	raw, ok, err := a.Store().Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok {
		out.Printf("no saved session\n")
		return nil
	}

	session, err := service.DecodeSession(raw, domain.DefaultPersistedSession())
	if err != nil {
		return fmt.Errorf("saved session is unreadable: %w", err)
	}

	out.Printf("storage:  %s (%s)\n", a.Config().Storage.Backend, humanize.IBytes(uint64(len(raw))))
	if ts, ok := a.Store().(timestamped); ok {
		if at, found, err := ts.UpdatedAt(ctx, key); err == nil && found {
			out.Printf("saved:    %s\n", humanize.Time(at))
		}
	}
	out.Printf("mode:     %s\n", session.PlaybackMode)
	out.Printf("volume:   %.0f%%\n", session.Volume*100)

	total, known := totalLength(session.Playlist)
	if known > 0 {
		out.Printf("length:   %s (%s of %s tracks)\n", formatClock(total),
			humanize.Comma(int64(known)), humanize.Comma(int64(len(session.Playlist))))
	}
	printTracks(out, session.Playlist, nil)
	return nil
}
