package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// Notification texts shown through the Notifier.
const (
	TitleInvalidTrack = "Cannot play track"
	TitlePlayback     = "Playback error"
	MessageSkipping   = "Unable to play this track. Skipping to the next one."
)

// ControllerConfig tunes a SessionController.
type ControllerConfig struct {
	// DefaultVolume is the volume of a fresh or fully cleared session
	DefaultVolume float64

	// FallbackDuration is assumed while a track's duration is unknown
	FallbackDuration time.Duration

	// RetryDelay is how long to wait after a failed load before skipping ahead
	RetryDelay time.Duration

	// Random picks shuffle indexes; math/rand/v2's IntN when nil
	Random domain.RandomIndex
}

// DefaultControllerConfig returns the production settings.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		DefaultVolume:    domain.DefaultVolume,
		FallbackDuration: domain.FallbackTrackDuration,
		RetryDelay:       2 * time.Second,
		Random:           rand.IntN,
	}
}

// SessionController owns the audio session: what is playing, what comes next,
// and how failures are recovered.
//
// All state is confined to one goroutine. Public methods enqueue a step and
// wait for it to be applied; engine callbacks and the retry timer enqueue
// without waiting. Events and notifications are handed to a second goroutine,
// so bus handlers may call back into the controller. No public method returns
// an error: failures are logged and, where the user must know, reported via
// the Notifier.
type SessionController struct {
	// Dependencies (injected)
	logger    *slog.Logger
	engine    ports.PlaybackEngine
	notifier  ports.Notifier
	bus       ports.EventBus
	persister *SessionPersister
	cfg       ControllerConfig

	loop     *mailbox
	dispatch *mailbox

	// State, owned by the loop goroutine
	store      *PlaylistStore
	snap       domain.SessionSnapshot
	handle     domain.TrackHandle
	loadGen    uint64
	retryTimer *time.Timer
	failures   int

	hydrated  atomic.Bool
	closeOnce sync.Once
}

// NewSessionController creates a controller with a default snapshot and starts its goroutines.
// Call Hydrate once to restore the persisted subset, and Close when done.
func NewSessionController(
	logger *slog.Logger,
	engine ports.PlaybackEngine,
	notifier ports.Notifier,
	bus ports.EventBus,
	persister *SessionPersister,
	cfg ControllerConfig,
) *SessionController {
	defaults := DefaultControllerConfig()
	if cfg.FallbackDuration <= 0 {
		cfg.FallbackDuration = defaults.FallbackDuration
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if cfg.Random == nil {
		cfg.Random = defaults.Random
	}
	cfg.DefaultVolume = domain.ClampVolume(cfg.DefaultVolume)

	logger = logger.With(slog.String("service", "session"))

	c := &SessionController{
		logger:    logger,
		engine:    engine,
		notifier:  notifier,
		bus:       bus,
		persister: persister,
		cfg:       cfg,
		loop:      newMailbox(logger),
		dispatch:  newMailbox(logger),
		store:     NewPlaylistStore(),
		snap:      defaultSnapshot(cfg),
		handle:    domain.InvalidTrackHandle,
	}

	logger.Debug("session controller initialized")
	return c
}

func defaultSnapshot(cfg ControllerConfig) domain.SessionSnapshot {
	snap := domain.DefaultSnapshot()
	snap.Volume = cfg.DefaultVolume
	return snap
}

// do runs fn on the loop goroutine and waits for it.
func (c *SessionController) do(fn func()) {
	c.loop.call(fn)
}

// Snapshot returns a copy of the current session state.
func (c *SessionController) Snapshot() domain.SessionSnapshot {
	var out domain.SessionSnapshot
	if c.loop.call(func() { out = c.snap.Clone() }) {
		return out
	}
	// Closed: the loop goroutine has exited and the snapshot is frozen.
	<-c.loop.done
	return c.snap.Clone()
}

// Hydrate restores the persisted playlist, playback mode and volume.
// Only the first call has an effect; the rest of the snapshot is untouched.
func (c *SessionController) Hydrate(ctx context.Context) {
	if c.hydrated.Swap(true) {
		c.logger.Debug("session already hydrated")
		return
	}

	persisted := c.persister.Load(ctx)

	c.do(func() {
		c.store.SetAll(persisted.Playlist, c.store.Album())
		c.snap.Playlist = c.store.Tracks()
		c.snap.PlaybackMode = persisted.PlaybackMode
		c.snap.Volume = domain.ClampVolume(persisted.Volume)

		c.logger.Info("session restored",
			slog.Int("tracks", len(c.snap.Playlist)),
			slog.String("mode", c.snap.PlaybackMode.String()),
			slog.Float64("volume", c.snap.Volume))

		c.commit(false,
			domain.NewPlaylistUpdatedEvent(c.store.Tracks()),
			domain.NewModeChangedEvent(c.snap.PlaybackMode, c.snap.Shuffle),
			domain.NewVolumeChangedEvent(c.snap.Volume))
	})
}

// PlaySong validates and plays a single track. The playlist is not modified.
func (c *SessionController) PlaySong(track domain.Track) {
	c.do(func() {
		c.failures = 0
		c.playTrack(track)
	})
}

// PlayPlaylist replaces the playlist and album association and plays
// tracks[startIndex], or tracks[0] when startIndex is out of range.
// An empty tracks only clears the album association.
func (c *SessionController) PlayPlaylist(tracks []domain.Track, startIndex int, album *domain.AlbumInfo) {
	c.do(func() {
		if len(tracks) == 0 {
			c.store.SetAll(c.store.Tracks(), nil)
			c.snap.CurrentAlbum = nil
			c.commit(false)
			return
		}

		c.store.SetAll(tracks, album)
		c.snap.Playlist = c.store.Tracks()
		c.snap.CurrentAlbum = c.store.Album()
		c.failures = 0
		c.commit(true, domain.NewPlaylistUpdatedEvent(c.store.Tracks()))

		if startIndex < 0 || startIndex >= len(tracks) {
			startIndex = 0
		}
		start, _ := c.store.At(startIndex)
		c.playTrack(start)
	})
}

// TogglePlayPause pauses or resumes the loaded track. No-op when nothing is loaded.
func (c *SessionController) TogglePlayPause() {
	c.do(func() {
		if c.snap.CurrentSong == nil || c.handle == domain.InvalidTrackHandle {
			return
		}

		if c.snap.IsPlaying {
			if err := c.engine.Pause(c.handle); err != nil {
				c.logger.Warn("failed to pause", slog.Any("error", err))
				return
			}
			c.snap.IsPlaying = false
		} else {
			if err := c.engine.Play(c.handle); err != nil {
				c.logger.Warn("failed to resume", slog.Any("error", err))
				return
			}
			c.snap.IsPlaying = true
		}
		c.commit(false)
	})
}

// NextSong plays the track the current shuffle and mode settings resolve to.
func (c *SessionController) NextSong() {
	c.do(func() {
		c.failures = 0
		c.advance(domain.Forward)
	})
}

// PreviousSong plays the track before the current one.
func (c *SessionController) PreviousSong() {
	c.do(func() {
		c.failures = 0
		c.advance(domain.Backward)
	})
}

// SetShuffle sets the shuffle flag, which overrides the playback mode for navigation.
func (c *SessionController) SetShuffle(enabled bool) {
	c.do(func() {
		if c.snap.Shuffle == enabled {
			return
		}
		c.snap.Shuffle = enabled
		c.commit(false, domain.NewModeChangedEvent(c.snap.PlaybackMode, enabled))
	})
}

// SetPlaybackMode changes the playback mode. Unknown modes are ignored.
func (c *SessionController) SetPlaybackMode(mode domain.PlaybackMode) {
	if _, ok := domain.ParsePlaybackMode(string(mode)); !ok {
		c.logger.Warn("ignoring unknown playback mode", slog.String("mode", string(mode)))
		return
	}

	c.do(func() {
		if c.snap.PlaybackMode == mode {
			return
		}
		c.snap.PlaybackMode = mode
		c.commit(true, domain.NewModeChangedEvent(mode, c.snap.Shuffle))
	})
}

// SetVolume clamps v to [0, 1] and applies it to the loaded track, if any.
func (c *SessionController) SetVolume(v float64) {
	c.do(func() {
		c.snap.Volume = domain.ClampVolume(v)
		if c.handle != domain.InvalidTrackHandle {
			if err := c.engine.SetVolume(c.handle, c.snap.Volume); err != nil {
				c.logger.Warn("failed to set engine volume", slog.Any("error", err))
			}
		}
		c.commit(true, domain.NewVolumeChangedEvent(c.snap.Volume))
	})
}

// SeekTo moves the loaded track to position. No-op when nothing is loaded.
func (c *SessionController) SeekTo(position time.Duration) {
	c.do(func() {
		if c.handle == domain.InvalidTrackHandle {
			return
		}
		if position < 0 {
			position = 0
		}
		if err := c.engine.Seek(c.handle, position); err != nil {
			c.logger.Warn("failed to seek", slog.Duration("position", position), slog.Any("error", err))
			return
		}
		c.snap.CurrentTime = min(position, c.snap.Duration)
		c.commit(false)
	})
}

// AddToPlaylist appends track to the playlist.
func (c *SessionController) AddToPlaylist(track domain.Track) {
	c.do(func() {
		c.store.Append(track)
		c.playlistChanged()
	})
}

// RemoveFromPlaylist removes the entry at index. Out-of-range indexes are ignored.
// Removing the playing entry does not stop playback.
func (c *SessionController) RemoveFromPlaylist(index int) {
	c.do(func() {
		if c.store.RemoveAt(index) {
			c.playlistChanged()
		}
	})
}

// ReorderPlaylist moves the entry at from to position to. Out-of-range indexes are ignored.
func (c *SessionController) ReorderPlaylist(from, to int) {
	c.do(func() {
		if c.store.Move(from, to) {
			c.playlistChanged()
		}
	})
}

// ClearPlaylist unloads the current track and empties the playlist.
// Playback mode, volume and shuffle are user preferences and are kept.
func (c *SessionController) ClearPlaylist() {
	c.do(func() {
		c.cancelRetry()
		c.unload()
		c.loadGen++
		c.failures = 0

		c.store.Clear()
		c.snap.Playlist = c.store.Tracks()
		c.snap.CurrentAlbum = nil
		c.resetTransport()

		c.commit(true, domain.NewPlaylistUpdatedEvent(c.store.Tracks()))
	})
}

// StopAndClear tears the session down completely: the engine resource is
// unloaded, every field returns to its default and the persisted copy is
// erased. Safe to call repeatedly.
func (c *SessionController) StopAndClear() {
	c.do(func() {
		c.cancelRetry()
		c.unload()
		c.loadGen++
		c.failures = 0

		c.store.Clear()
		c.snap = defaultSnapshot(c.cfg)
		c.persister.Erase()

		c.logger.Info("session cleared")
		c.commit(false, domain.NewSessionClearedEvent())
	})
}

// Close releases the engine resource and stops the controller goroutines.
// Pending persistence writes are flushed; persisted state is kept.
func (c *SessionController) Close() {
	c.closeOnce.Do(func() {
		c.do(func() {
			c.cancelRetry()
			c.unload()
			c.loadGen++
			c.resetTransport()
		})
		c.loop.close()
		c.dispatch.close()
		c.persister.Flush()
		c.logger.Debug("session controller closed")
	})
}

// playTrack validates track and hands it to the engine. Runs on the loop goroutine.
func (c *SessionController) playTrack(track domain.Track) {
	c.cancelRetry()

	if err := domain.ValidateSourceURI(track.URL); err != nil {
		c.unload()
		c.loadGen++

		c.setCurrent(track)
		c.logger.Warn("refusing to play track",
			slog.String("track_id", track.ID),
			slog.Any("error", err))

		c.notify(TitleInvalidTrack, validationReason(err))
		c.commit(false, domain.NewTrackErrorEvent(track, err))
		return
	}

	c.unload()
	c.loadGen++
	gen := c.loadGen

	c.setCurrent(track)
	c.snap.IsLoading = true
	c.commit(false, domain.NewTrackLoadingEvent(track))

	c.logger.Debug("loading track", slog.String("track_id", track.ID), slog.String("url", track.URL))

	handle, err := c.engine.Load(track.URL, domain.LoadOptions{Autoplay: true, Volume: c.snap.Volume}, c.statusCallback(gen))
	if err != nil {
		c.snap.IsLoading = false
		c.loadFailed(track, err)
		return
	}

	c.handle = handle
	c.failures = 0
	c.snap.IsLoading = false
	c.snap.IsPlaying = true

	c.logger.Info("track started", slog.String("track_id", track.ID), slog.String("title", track.Title))
	c.commit(false, domain.NewTrackStartedEvent(track, c.snap.Duration))
}

// setCurrent makes track the current song with a fresh clock.
func (c *SessionController) setCurrent(track domain.Track) {
	t := track
	c.snap.CurrentSong = &t
	c.snap.IsPlaying = false
	c.snap.IsLoading = false
	c.snap.CurrentTime = 0
	c.snap.Duration = track.DurationOr(c.cfg.FallbackDuration)
}

// loadFailed reports a failed or lost resource and schedules a skip to the next entry.
func (c *SessionController) loadFailed(track domain.Track, err error) {
	c.snap.IsPlaying = false
	c.failures++

	c.logger.Warn("failed to load track",
		slog.String("track_id", track.ID),
		slog.Int("consecutive_failures", c.failures),
		slog.Any("error", err))

	c.notify(TitlePlayback, MessageSkipping)

	if n := c.store.Len(); n > 0 && c.failures < n {
		gen := c.loadGen
		c.retryTimer = time.AfterFunc(c.cfg.RetryDelay, func() {
			c.loop.post(func() { c.retry(gen) })
		})
	} else {
		c.logger.Warn("automatic skip disabled for this failure",
			slog.Int("failures", c.failures),
			slog.Int("playlist_length", n))
	}

	c.commit(false, domain.NewTrackErrorEvent(track, err))
}

func (c *SessionController) retry(gen uint64) {
	if gen != c.loadGen {
		return
	}
	c.retryTimer = nil
	c.advance(domain.Forward)
}

func (c *SessionController) cancelRetry() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// advance resolves the neighbour in dir and plays it, or stalls at the end.
func (c *SessionController) advance(dir domain.Direction) {
	currentID := ""
	if c.snap.CurrentSong != nil {
		currentID = c.snap.CurrentSong.ID
	}

	idx := domain.Resolve(c.store.Tracks(), currentID, c.snap.Shuffle, c.snap.PlaybackMode, dir, c.cfg.Random)
	if idx == domain.NoTrack {
		c.stall()
		return
	}

	track, _ := c.store.At(idx)
	c.playTrack(track)
}

// stall keeps the track loaded but stops the transport. Only ordered mode stalls.
func (c *SessionController) stall() {
	if c.snap.PlaybackMode != domain.ModeOrdered {
		return
	}
	if c.handle != domain.InvalidTrackHandle && c.snap.IsPlaying {
		if err := c.engine.Pause(c.handle); err != nil {
			c.logger.Warn("failed to pause at end of playlist", slog.Any("error", err))
		}
	}
	if !c.snap.IsPlaying {
		return
	}
	c.snap.IsPlaying = false
	c.commit(false)
}

// statusCallback tags engine updates with the generation of the load that produced them.
func (c *SessionController) statusCallback(gen uint64) domain.StatusCallback {
	return func(status domain.EngineStatus) {
		c.loop.post(func() { c.applyStatus(gen, status) })
	}
}

func (c *SessionController) applyStatus(gen uint64, status domain.EngineStatus) {
	if gen != c.loadGen || c.handle == domain.InvalidTrackHandle || c.snap.CurrentSong == nil {
		return
	}

	if status.Err != nil {
		track := *c.snap.CurrentSong
		c.unload()
		c.loadGen++
		c.loadFailed(track, status.Err)
		return
	}

	if !status.IsLoaded {
		return
	}

	c.snap.IsLoading = false
	c.snap.IsPlaying = status.IsPlaying
	if status.Duration > 0 {
		c.snap.Duration = status.Duration
	}
	c.snap.CurrentTime = min(max(status.Position, 0), c.snap.Duration)

	if status.DidJustFinish {
		c.commit(false, domain.NewTrackCompletedEvent(*c.snap.CurrentSong))
		c.onTrackFinished()
		return
	}
	c.commit(false)
}

// onTrackFinished restarts the same resource in loop-one mode and advances otherwise.
func (c *SessionController) onTrackFinished() {
	if c.snap.PlaybackMode != domain.ModeLoopOne {
		c.advance(domain.Forward)
		return
	}

	if err := c.engine.Seek(c.handle, 0); err != nil {
		c.logger.Warn("failed to rewind for loop", slog.Any("error", err))
		c.snap.IsPlaying = false
		c.commit(false)
		return
	}
	if err := c.engine.Play(c.handle); err != nil {
		c.logger.Warn("failed to restart for loop", slog.Any("error", err))
		c.snap.IsPlaying = false
		c.commit(false)
		return
	}

	c.snap.CurrentTime = 0
	c.snap.IsPlaying = true
	c.commit(false)
}

func (c *SessionController) playlistChanged() {
	c.snap.Playlist = c.store.Tracks()
	c.commit(true, domain.NewPlaylistUpdatedEvent(c.store.Tracks()))
}

// resetTransport returns the snapshot to "nothing loaded".
func (c *SessionController) resetTransport() {
	c.snap.CurrentSong = nil
	c.snap.IsPlaying = false
	c.snap.IsLoading = false
	c.snap.CurrentTime = 0
	c.snap.Duration = 0
}

// unload releases the engine resource. Engine errors are logged and otherwise ignored.
func (c *SessionController) unload() {
	if c.handle == domain.InvalidTrackHandle {
		return
	}
	if err := c.engine.Unload(c.handle); err != nil {
		c.logger.Debug("unload failed", slog.Int64("handle", int64(c.handle)), slog.Any("error", err))
	}
	c.handle = domain.InvalidTrackHandle
}

// commit publishes the applied step and, when persist is set, saves the persisted subset.
func (c *SessionController) commit(persist bool, events ...domain.Event) {
	snap := c.snap.Clone()
	if persist {
		c.persister.Save(snap.Persisted())
	}

	events = append(events, domain.NewSessionChangedEvent(snap))
	c.dispatch.post(func() {
		for _, e := range events {
			c.bus.Publish(e)
		}
	})
}

func (c *SessionController) notify(title, message string) {
	c.dispatch.post(func() { c.notifier.ShowError(title, message) })
}

func validationReason(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
