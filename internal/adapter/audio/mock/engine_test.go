package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/testutil"
)

const testURI = "https://cdn.test/rain.mp3"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(nil)
	require.NoError(t, engine.Initialize())
	return engine
}

// statusRecorder collects status callbacks.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []domain.EngineStatus
}

func (r *statusRecorder) callback(s domain.EngineStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) last() domain.EngineStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

func (r *statusRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

// TestInitializeAlreadyInitialized tests initializing an already initialized engine.
func TestInitializeAlreadyInitialized(t *testing.T) {
	engine := newTestEngine(t)

	err := engine.Initialize()
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)
}

// TestLoadWithoutInitialize tests that loads fail before Initialize.
func TestLoadWithoutInitialize(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Load(testURI, domain.LoadOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

// TestLoadReportsInitialStatus tests that Load reports the autoplay state and duration.
func TestLoadReportsInitialStatus(t *testing.T) {
	engine := newTestEngine(t)
	rec := &statusRecorder{}

	handle, err := engine.Load(testURI, domain.LoadOptions{Autoplay: true, Volume: 0.4}, rec.callback)
	require.NoError(t, err)
	assert.NotEqual(t, domain.InvalidTrackHandle, handle)

	require.Equal(t, 1, rec.len())
	status := rec.last()
	assert.True(t, status.IsLoaded)
	assert.True(t, status.IsPlaying)
	assert.Equal(t, DefaultTrackDuration, status.Duration)

	vol, err := engine.Volume(handle)
	require.NoError(t, err)
	assert.Equal(t, 0.4, vol)
	assert.Equal(t, []string{testURI}, engine.LoadedURIs())
}

// TestPlayPauseSeek tests playback control and the call log.
func TestPlayPauseSeek(t *testing.T) {
	engine := newTestEngine(t)

	handle, err := engine.Load(testURI, domain.LoadOptions{}, nil)
	require.NoError(t, err)
	assert.False(t, engine.IsPlaying(handle))

	require.NoError(t, engine.Play(handle))
	assert.True(t, engine.IsPlaying(handle))

	require.NoError(t, engine.Pause(handle))
	assert.False(t, engine.IsPlaying(handle))

	require.NoError(t, engine.Seek(handle, 10*time.Minute))
	assert.ErrorIs(t, engine.Seek(handle, -time.Second), domain.ErrInvalidPosition)

	ops := make([]string, 0)
	for _, c := range engine.Calls() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"load", "play", "pause", "seek", "seek"}, ops)
	assert.Equal(t, 2, engine.CountCalls("seek"))
}

// TestVolumeInvalidRange tests volume validation.
func TestVolumeInvalidRange(t *testing.T) {
	engine := newTestEngine(t)
	handle, err := engine.Load(testURI, domain.LoadOptions{}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, engine.SetVolume(handle, 1.5), domain.ErrInvalidVolume)
	assert.ErrorIs(t, engine.SetVolume(handle, -0.1), domain.ErrInvalidVolume)
	require.NoError(t, engine.SetVolume(handle, 0.25))
}

// TestUnload tests that unloaded handles become invalid.
func TestUnload(t *testing.T) {
	engine := newTestEngine(t)
	handle, err := engine.Load(testURI, domain.LoadOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.LoadedCount())

	require.NoError(t, engine.Unload(handle))
	assert.Equal(t, 0, engine.LoadedCount())
	assert.ErrorIs(t, engine.Play(handle), domain.ErrInvalidTrackHandle)
	assert.ErrorIs(t, engine.Unload(handle), domain.ErrInvalidTrackHandle)
}

// TestFailLoad tests configured load failures.
func TestFailLoad(t *testing.T) {
	engine := newTestEngine(t)
	boom := errors.New("403 forbidden")
	engine.FailURI("https://cdn.test/locked.mp3", boom)

	_, err := engine.Load("https://cdn.test/locked.mp3", domain.LoadOptions{}, nil)
	assert.ErrorIs(t, err, boom)

	var engineErr *domain.AudioEngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "load", engineErr.Op)

	engine.SetFailLoad(true)
	_, err = engine.Load(testURI, domain.LoadOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrPlaybackFailed)
	assert.Equal(t, 0, engine.LoadedCount())
	assert.Len(t, engine.LoadedURIs(), 2)
}

// TestSimulateFinish tests the finish report.
func TestSimulateFinish(t *testing.T) {
	engine := newTestEngine(t)
	rec := &statusRecorder{}
	handle, err := engine.Load(testURI, domain.LoadOptions{Autoplay: true}, rec.callback)
	require.NoError(t, err)

	require.NoError(t, engine.SimulateProgress(30*time.Second))
	assert.Equal(t, 30*time.Second, rec.last().Position)
	assert.True(t, rec.last().IsPlaying)

	require.NoError(t, engine.SimulateFinish())
	last := rec.last()
	assert.True(t, last.DidJustFinish)
	assert.False(t, last.IsPlaying)
	assert.Equal(t, DefaultTrackDuration, last.Position)
	assert.False(t, engine.IsPlaying(handle))
}

// TestSimulateWithoutTrack tests simulation with nothing loaded.
func TestSimulateWithoutTrack(t *testing.T) {
	engine := newTestEngine(t)
	assert.ErrorIs(t, engine.SimulateFinish(), domain.ErrInvalidTrackHandle)
}

// TestClock tests that the simulated clock advances and finishes playing resources.
func TestClock(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine := newTestEngine(t)
	engine.SetDuration(30 * time.Millisecond)
	rec := &statusRecorder{}
	_, err := engine.Load(testURI, domain.LoadOptions{Autoplay: true}, rec.callback)
	require.NoError(t, err)

	engine.StartClock(5 * time.Millisecond)
	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		for _, s := range rec.statuses {
			if s.DidJustFinish {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engine.Shutdown())
}

// TestShutdown tests that shutdown drops resources.
func TestShutdown(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Load(testURI, domain.LoadOptions{}, nil)
	require.NoError(t, err)

	require.NoError(t, engine.Shutdown())
	assert.Equal(t, 0, engine.LoadedCount())
	assert.ErrorIs(t, engine.Shutdown(), domain.ErrNotInitialized)
}
