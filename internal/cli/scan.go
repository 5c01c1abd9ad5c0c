package cli

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/service"
)

type scanOptions struct {
	baseURL   string
	out       string
	albumName string
}

func newScanCmd(g *globals) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Build a playlist from a folder served over HTTP",
		Long: `Walks a local folder of audio files that is published at --base-url and writes
a playlist file that "studybeats play" accepts. Titles, artists and albums are
read from the file tags.

Example:
  studybeats scan ~/Music/lofi --base-url https://media.local/lofi --out lofi.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.baseURL, "base-url", "u", "", "URL the folder is served at (required)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "playlist file to write (default: print to stdout)")
	cmd.Flags().StringVar(&opts.albumName, "album", "", "album name stored with the playlist")
	_ = cmd.MarkFlagRequired("base-url")
	return cmd
}

func runScan(cmd *cobra.Command, g *globals, opts *scanOptions, dir string) error {
	a, err := g.newApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown() }()

	if g.verbose {
		a.EventBus().Subscribe(domain.EventScanProgress, func(event domain.Event) {
			p := event.(domain.ScanProgressEvent).Progress
			cmd.PrintErrf("[%3.0f%%] %s\n", p.Percentage(), p.CurrentFile)
		})
	}

	tracks, err := a.Catalog().ScanFolder(cmd.Context(), dir, opts.baseURL)
	if err != nil && !errors.Is(err, domain.ErrScanCancelled) {
		return err
	}

	pl := playlistFile{Tracks: tracks}
	if opts.albumName != "" {
		pl.Album = &domain.AlbumInfo{ID: albumIDFor(opts.baseURL, opts.albumName), Name: opts.albumName}
	}

	if opts.out == "" {
		return writePlaylistTo(cmd.OutOrStdout(), pl)
	}
	if err := writePlaylist(opts.out, pl); err != nil {
		return err
	}
	cmd.PrintErrf("wrote %d track(s) to %s\n", len(tracks), opts.out)
	return nil
}

// albumIDFor matches the album IDs the scan assigns to tagged tracks.
func albumIDFor(baseURL, name string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return ""
	}
	return service.AlbumID(u, name)
}
