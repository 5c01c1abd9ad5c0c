package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
	"github.com/tejashwikalptaru/studybeats/internal/service"
)

const shellHelp = `commands:
  toggle              play or pause
  next, prev          skip forward or back
  vol <0..1>          set the volume
  seek <seconds>      jump within the current track
  mode <mode>         ordered, shuffle, loop-one or loop-all
  shuffle on|off      toggle shuffle
  add <track json>    append a track to the playlist
  rm <index>          remove a playlist entry
  mv <from> <to>      move a playlist entry
  clear               empty the playlist
  stop                stop and forget the session
  status              print the session
  quit                exit, keeping the session`

type playOptions struct {
	start   int
	mode    string
	shuffle bool
}

func newPlayCmd(g *globals) *cobra.Command {
	opts := &playOptions{}

	cmd := &cobra.Command{
		Use:   "play [playlist.json]",
		Short: "Play a playlist and read commands from stdin",
		Long: `Restores the saved session and starts playing. When a playlist file is given it
replaces the saved playlist. Commands are read line by line from stdin; type
"help" for the list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, g, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.start, "start", "s", 0, "index of the first track to play")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "playback mode: ordered, shuffle, loop-one or loop-all")
	cmd.Flags().BoolVar(&opts.shuffle, "shuffle", false, "enable shuffle")
	return cmd
}

func runPlay(cmd *cobra.Command, g *globals, opts *playOptions, args []string) error {
	var mode domain.PlaybackMode
	if opts.mode != "" {
		m, ok := domain.ParsePlaybackMode(opts.mode)
		if !ok {
			return fmt.Errorf("unknown playback mode %q", opts.mode)
		}
		mode = m
	}

	var pl *playlistFile
	if len(args) == 1 {
		p, err := readPlaylist(args[0])
		if err != nil {
			return err
		}
		pl = &p
	}

	out := &syncWriter{w: cmd.OutOrStdout()}

	a, err := g.newApp(cmd, out)
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown() }()

	watchSession(a.EventBus(), out)

	ctx := cmd.Context()
	a.Hydrate(ctx)

	ctl := a.Session()
	if mode != "" {
		ctl.SetPlaybackMode(mode)
	}
	if opts.shuffle {
		ctl.SetShuffle(true)
	}

	switch {
	case pl != nil:
		ctl.PlayPlaylist(pl.Tracks, opts.start, pl.Album)
	case len(ctl.Snapshot().Playlist) > 0:
		ctl.PlayPlaylist(ctl.Snapshot().Playlist, opts.start, nil)
	default:
		out.Printf("playlist is empty; use \"add\" or pass a playlist file\n")
	}

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := execLine(ctl, line, out)
			if err != nil {
				out.Printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// execLine applies one shell command to the session.
func execLine(ctl *service.SessionController, line string, out *syncWriter) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	name, rest := fields[0], fields[1:]
	switch name {
	case "toggle", "p":
		ctl.TogglePlayPause()
	case "next", "n":
		ctl.NextSong()
	case "prev":
		ctl.PreviousSong()
	case "vol", "volume":
		v, err := floatArg(rest)
		if err != nil {
			return false, err
		}
		ctl.SetVolume(v)
	case "seek":
		secs, err := floatArg(rest)
		if err != nil {
			return false, err
		}
		ctl.SeekTo(time.Duration(secs * float64(time.Second)))
	case "mode":
		if len(rest) != 1 {
			return false, errors.New("usage: mode <ordered|shuffle|loop-one|loop-all>")
		}
		m, ok := domain.ParsePlaybackMode(rest[0])
		if !ok {
			return false, fmt.Errorf("unknown playback mode %q", rest[0])
		}
		ctl.SetPlaybackMode(m)
	case "shuffle":
		if len(rest) != 1 || (rest[0] != "on" && rest[0] != "off") {
			return false, errors.New("usage: shuffle on|off")
		}
		ctl.SetShuffle(rest[0] == "on")
	case "add":
		raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), name))
		var track domain.Track
		if err := json.Unmarshal([]byte(raw), &track); err != nil {
			return false, fmt.Errorf("parse track: %w", err)
		}
		ctl.AddToPlaylist(track)
	case "rm":
		idx, err := intArgs(rest, 1)
		if err != nil {
			return false, err
		}
		ctl.RemoveFromPlaylist(idx[0])
	case "mv":
		idx, err := intArgs(rest, 2)
		if err != nil {
			return false, err
		}
		ctl.ReorderPlaylist(idx[0], idx[1])
	case "clear":
		ctl.ClearPlaylist()
	case "stop":
		ctl.StopAndClear()
	case "status":
		printSnapshot(out, ctl.Snapshot())
	case "help", "?":
		out.Printf("%s\n", shellHelp)
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try \"help\")", name)
	}
	return false, nil
}

func floatArg(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one number")
	}
	return strconv.ParseFloat(args[0], 64)
}

func intArgs(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d index(es)", n)
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", a)
		}
		out[i] = v
	}
	return out, nil
}

// watchSession prints the session events a listener cares about.
func watchSession(bus ports.EventBus, out *syncWriter) {
	bus.Subscribe(domain.EventTrackStarted, func(event domain.Event) {
		e := event.(domain.TrackStartedEvent)
		out.Printf("> %s (%s)\n", trackLabel(e.Track), formatClock(e.Duration))
	})
	bus.Subscribe(domain.EventTrackCompleted, func(event domain.Event) {
		e := event.(domain.TrackCompletedEvent)
		out.Printf("finished %s\n", trackLabel(e.Track))
	})
	bus.Subscribe(domain.EventModeChanged, func(event domain.Event) {
		e := event.(domain.ModeChangedEvent)
		out.Printf("mode %s, shuffle %t\n", e.Mode, e.Shuffle)
	})
	bus.Subscribe(domain.EventVolumeChanged, func(event domain.Event) {
		e := event.(domain.VolumeChangedEvent)
		out.Printf("volume %.0f%%\n", e.Volume*100)
	})
	bus.Subscribe(domain.EventPlaylistUpdated, func(event domain.Event) {
		e := event.(domain.PlaylistUpdatedEvent)
		out.Printf("playlist: %d track(s)\n", len(e.Playlist))
	})
	bus.Subscribe(domain.EventSessionCleared, func(domain.Event) {
		out.Printf("session cleared\n")
	})
}

func printSnapshot(out *syncWriter, snap domain.SessionSnapshot) {
	state := "stopped"
	switch {
	case snap.IsLoading:
		state = "loading"
	case snap.IsPlaying:
		state = "playing"
	case snap.CurrentSong != nil:
		state = "paused"
	}

	out.Printf("state:    %s\n", state)
	if snap.CurrentSong != nil {
		out.Printf("track:    %s  %s / %s\n", trackLabel(*snap.CurrentSong),
			formatClock(snap.CurrentTime), formatClock(snap.Duration))
	}
	if snap.CurrentAlbum != nil {
		out.Printf("album:    %s\n", snap.CurrentAlbum.Name)
	}
	out.Printf("mode:     %s (shuffle %t)\n", snap.PlaybackMode, snap.Shuffle)
	out.Printf("volume:   %.0f%%\n", snap.Volume*100)
	printTracks(out, snap.Playlist, snap.CurrentSong)
}

func printTracks(out *syncWriter, tracks []domain.Track, current *domain.Track) {
	out.Printf("playlist: %d track(s)\n", len(tracks))
	for i, t := range tracks {
		marker := " "
		if current != nil && current.ID == t.ID {
			marker = ">"
		}
		out.Printf("%s %3d  %s\n", marker, i, trackLabel(t))
	}
}

func trackLabel(t domain.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}

// syncWriter serializes writes from command code and event handlers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s, format, args...)
}
