// Package mock provides an in-memory implementation of the PlaybackEngine interface.
// It is used by service tests and by the CLI when no audio device is available.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// DefaultTrackDuration is reported for every loaded resource unless changed with SetDuration.
const DefaultTrackDuration = 3 * time.Minute

// Call is one recorded engine invocation.
type Call struct {
	Op       string // "load", "play", "pause", "seek", "volume", "unload"
	Handle   domain.TrackHandle
	URI      string
	Position time.Duration
	Volume   float64
}

// Engine simulates streaming playback in memory without producing audio.
// Every call is recorded so tests can assert exactly what the controller asked for.
//
// Thread-safety: This implementation is thread-safe. Status callbacks are always
// invoked without the engine lock held.
type Engine struct {
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
	tracks      map[domain.TrackHandle]*mockTrack
	nextHandle  domain.TrackHandle
	calls       []Call
	duration    time.Duration

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       bool
	failURIs       map[string]error
	failPlay       bool

	// Simulated clock
	clockStop chan struct{}
	clockWG   sync.WaitGroup
}

// mockTrack represents a loaded resource in the mock engine.
type mockTrack struct {
	handle   domain.TrackHandle
	uri      string
	duration time.Duration
	position time.Duration
	volume   float64
	playing  bool
	finished bool
	onStatus domain.StatusCallback
}

func (t *mockTrack) status() domain.EngineStatus {
	return domain.EngineStatus{
		IsLoaded:      true,
		IsPlaying:     t.playing,
		DidJustFinish: t.finished,
		Position:      t.position,
		Duration:      t.duration,
	}
}

// NewEngine creates a new mock playback engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		logger:     logger.With(slog.String("component", "mock-engine")),
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		nextHandle: 1,
		duration:   DefaultTrackDuration,
		failURIs:   make(map[string]error),
	}
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad configures the mock to fail loading every resource (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// FailURI makes loads of uri fail with err (for testing).
func (m *Engine) FailURI(uri string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failURIs[uri] = err
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetDuration changes the duration reported for resources loaded afterwards.
// Zero makes the engine report an unknown duration.
func (m *Engine) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// Initialize initializes the mock engine.
func (m *Engine) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	return nil
}

// Shutdown stops the simulated clock and drops every loaded resource.
func (m *Engine) Shutdown() error {
	m.StopClock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.tracks = make(map[domain.TrackHandle]*mockTrack)
	return nil
}

// Load registers a simulated resource and reports an initial status.
func (m *Engine) Load(uri string, opts domain.LoadOptions, onStatus domain.StatusCallback) (domain.TrackHandle, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: "load", URI: uri, Volume: opts.Volume})

	if !m.initialized {
		m.mu.Unlock()
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if m.failLoad {
		m.mu.Unlock()
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", uri, "mock load failed", domain.ErrPlaybackFailed)
	}
	if err, ok := m.failURIs[uri]; ok {
		m.mu.Unlock()
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", uri, "mock load failed", err)
	}

	handle := m.nextHandle
	m.nextHandle++

	track := &mockTrack{
		handle:   handle,
		uri:      uri,
		duration: m.duration,
		volume:   opts.Volume,
		playing:  opts.Autoplay,
		onStatus: onStatus,
	}
	m.tracks[handle] = track
	status := track.status()
	m.mu.Unlock()

	m.logger.Debug("resource loaded", slog.String("uri", uri), slog.Int64("handle", int64(handle)))

	if onStatus != nil {
		onStatus(status)
	}
	return handle, nil
}

// Unload releases a loaded resource.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: "unload", Handle: handle})

	if _, exists := m.tracks[handle]; !exists {
		return domain.ErrInvalidTrackHandle
	}
	delete(m.tracks, handle)
	return nil
}

// Play starts or resumes playback.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: "play", Handle: handle})

	if m.failPlay {
		return domain.ErrPlaybackFailed
	}
	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	track.playing = true
	track.finished = false
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: "pause", Handle: handle})

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	track.playing = false
	return nil
}

// Seek sets the playback position. Positions past the end are clamped.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: "seek", Handle: handle, Position: position})

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if position < 0 {
		return domain.ErrInvalidPosition
	}
	if track.duration > 0 && position > track.duration {
		position = track.duration
	}

	track.position = position
	track.finished = false
	return nil
}

// SetVolume sets the playback volume.
func (m *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: "volume", Handle: handle, Volume: volume})

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	track.volume = volume
	return nil
}

// Calls returns a copy of every recorded invocation, oldest first.
func (m *Engine) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CountCalls returns how many times op was invoked.
func (m *Engine) CountCalls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LoadedURIs returns the URI of every load attempt, successful or not.
func (m *Engine) LoadedURIs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var uris []string
	for _, c := range m.calls {
		if c.Op == "load" {
			uris = append(uris, c.URI)
		}
	}
	return uris
}

// ResetCalls clears the call log.
func (m *Engine) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// LoadedCount returns the number of currently loaded resources.
func (m *Engine) LoadedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracks)
}

// IsPlaying reports whether the resource behind handle is playing.
func (m *Engine) IsPlaying(handle domain.TrackHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	track, ok := m.tracks[handle]
	return ok && track.playing
}

// Volume returns the volume of the resource behind handle.
func (m *Engine) Volume(handle domain.TrackHandle) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	track, ok := m.tracks[handle]
	if !ok {
		return 0, domain.ErrInvalidTrackHandle
	}
	return track.volume, nil
}

// Current returns the most recently loaded resource that is still loaded.
func (m *Engine) Current() (domain.TrackHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest domain.TrackHandle
	for h := range m.tracks {
		if h > latest {
			latest = h
		}
	}
	return latest, latest != domain.InvalidTrackHandle
}

// SimulateProgress moves the current resource to position and reports it.
func (m *Engine) SimulateProgress(position time.Duration) error {
	return m.emit(func(t *mockTrack) {
		t.position = position
	})
}

// SimulateFinish moves the current resource to its end and reports a finish.
func (m *Engine) SimulateFinish() error {
	return m.emit(func(t *mockTrack) {
		t.position = t.duration
		t.playing = false
		t.finished = true
	})
}

// SimulateStatus reports an arbitrary status for the current resource.
func (m *Engine) SimulateStatus(status domain.EngineStatus) error {
	h, ok := m.Current()
	if !ok {
		return domain.ErrInvalidTrackHandle
	}
	m.mu.Lock()
	cb := m.tracks[h].onStatus
	m.mu.Unlock()
	if cb != nil {
		cb(status)
	}
	return nil
}

func (m *Engine) emit(mutate func(*mockTrack)) error {
	h, ok := m.Current()
	if !ok {
		return domain.ErrInvalidTrackHandle
	}

	m.mu.Lock()
	track, exists := m.tracks[h]
	if !exists {
		m.mu.Unlock()
		return domain.ErrInvalidTrackHandle
	}
	mutate(track)
	status := track.status()
	cb := track.onStatus
	track.finished = false
	m.mu.Unlock()

	if cb != nil {
		cb(status)
	}
	return nil
}

// StartClock advances every playing resource in real time, reporting status on
// each tick and a finish when a resource reaches its end. Used by the CLI demo.
func (m *Engine) StartClock(interval time.Duration) {
	m.mu.Lock()
	if m.clockStop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	m.clockStop = stop
	m.mu.Unlock()

	m.clockWG.Add(1)
	go func() {
		defer m.clockWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.tick(interval)
			}
		}
	}()
}

// StopClock stops the simulated clock started by StartClock.
func (m *Engine) StopClock() {
	m.mu.Lock()
	stop := m.clockStop
	m.clockStop = nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		m.clockWG.Wait()
	}
}

func (m *Engine) tick(elapsed time.Duration) {
	type report struct {
		cb     domain.StatusCallback
		status domain.EngineStatus
	}

	m.mu.Lock()
	var reports []report
	for _, t := range m.tracks {
		if !t.playing {
			continue
		}
		t.position += elapsed
		if t.duration > 0 && t.position >= t.duration {
			t.position = t.duration
			t.playing = false
			t.finished = true
		}
		reports = append(reports, report{cb: t.onStatus, status: t.status()})
		t.finished = false
	}
	m.mu.Unlock()

	for _, r := range reports {
		if r.cb != nil {
			r.cb(r.status)
		}
	}
}

// Verify that Engine implements the PlaybackEngine interface
var _ ports.PlaybackEngine = (*Engine)(nil)
