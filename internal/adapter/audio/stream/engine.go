// Package stream implements the PlaybackEngine interface on top of gopxl/beep.
// Tracks are fetched over HTTP, decoded in memory and mixed into the system
// audio device.
package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// Engine defaults.
const (
	DefaultSampleRate       = beep.SampleRate(44100)
	DefaultBufferSize       = 250 * time.Millisecond
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultMaxBytes         = 256 << 20

	// MinVolumeDB is the beep volume used for the quietest audible level
	MinVolumeDB = -10.0

	volumeCurveExponent = 0.5
	resampleQuality     = 4
)

// Config tunes the engine. Zero values select the defaults.
type Config struct {
	SampleRate       beep.SampleRate
	BufferSize       time.Duration
	HTTPTimeout      time.Duration
	ProgressInterval time.Duration
	MaxBytes         int64
	HTTPClient       *http.Client
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}
	return c
}

// Engine streams remote audio through beep.
//
// Thread-safety: all methods are safe for concurrent use. Status callbacks
// run on the engine's progress goroutine without any engine lock held.
type Engine struct {
	logger *slog.Logger
	cfg    Config
	out    output

	mu          sync.Mutex
	initialized bool
	tracks      map[domain.TrackHandle]*track
	nextHandle  domain.TrackHandle

	stop chan struct{}
	wg   sync.WaitGroup
}

// track is one loaded resource.
type track struct {
	handle   domain.TrackHandle
	uri      string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	gate     *gate
	onStatus domain.StatusCallback

	// epoch counts how often the track was handed to the device;
	// ended holds the epoch whose stream ran out.
	epoch  uint64
	ended  atomic.Uint64
	queued bool
}

// NewEngine creates an engine that plays through the system speaker.
func NewEngine(logger *slog.Logger, cfg Config) *Engine {
	return newEngine(logger, cfg, speakerOutput{})
}

func newEngine(logger *slog.Logger, cfg Config, out output) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		logger:     logger.With(slog.String("component", "stream-engine")),
		cfg:        cfg.withDefaults(),
		out:        out,
		tracks:     make(map[domain.TrackHandle]*track),
		nextHandle: 1,
	}
}

// Initialize opens the audio device and starts the progress reporter.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}

	if err := e.out.Init(e.cfg.SampleRate, e.cfg.SampleRate.N(e.cfg.BufferSize)); err != nil {
		return domain.NewAudioEngineError("initialize", "", "failed to open audio device", err)
	}

	e.initialized = true
	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.reportLoop(e.stop)

	e.logger.Info("audio engine initialized",
		slog.Int("sample_rate", int(e.cfg.SampleRate)),
		slog.Duration("buffer", e.cfg.BufferSize))
	return nil
}

// Shutdown stops the reporter, releases every track and closes the device.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return domain.ErrNotInitialized
	}
	e.initialized = false
	stop := e.stop
	e.stop = nil
	e.mu.Unlock()

	close(stop)
	e.wg.Wait()

	e.mu.Lock()
	for h, t := range e.tracks {
		e.release(t)
		delete(e.tracks, h)
	}
	e.mu.Unlock()

	e.out.Close()
	e.logger.Info("audio engine shut down")
	return nil
}

// Load downloads and decodes uri, then hands it to the device.
func (e *Engine) Load(uri string, opts domain.LoadOptions, onStatus domain.StatusCallback) (domain.TrackHandle, error) {
	if !e.isInitialized() {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	data, err := e.fetch(uri)
	if err != nil {
		return domain.InvalidTrackHandle, err
	}

	streamer, format, codec, err := decode(data, uri)
	if err != nil {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", uri, "failed to decode "+codec.String()+" stream", err)
	}

	var source beep.Streamer = streamer
	if format.SampleRate != e.cfg.SampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, e.cfg.SampleRate, streamer)
	}

	volume := domain.ClampVolume(opts.Volume)
	ctrl := &beep.Ctrl{Streamer: source, Paused: !opts.Autoplay}
	t := &track{
		uri:      uri,
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
		volume: &effects.Volume{
			Streamer: ctrl,
			Base:     2,
			Volume:   levelToVolume(volume),
			Silent:   volume <= 0,
		},
		onStatus: onStatus,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		_ = streamer.Close()
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	t.handle = e.nextHandle
	e.nextHandle++
	e.tracks[t.handle] = t
	e.enqueue(t)

	e.logger.Debug("track loaded",
		slog.String("uri", uri),
		slog.String("codec", codec.String()),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Duration("duration", format.SampleRate.D(streamer.Len())))
	return t.handle, nil
}

func (e *Engine) fetch(uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, domain.NewAudioEngineError("load", uri, "invalid request", err)
	}

	resp, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, domain.NewAudioEngineError("load", uri, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewAudioEngineError("load", uri, fmt.Sprintf("unexpected status %d", resp.StatusCode), domain.ErrPlaybackFailed)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBytes+1))
	if err != nil {
		return nil, domain.NewAudioEngineError("load", uri, "failed to read body", err)
	}
	if int64(len(data)) > e.cfg.MaxBytes {
		return nil, domain.NewAudioEngineError("load", uri, "track too large", domain.ErrPlaybackFailed)
	}
	return data, nil
}

// enqueue hands t to the device again. Caller holds e.mu.
func (e *Engine) enqueue(t *track) {
	t.epoch++
	epoch := t.epoch
	t.queued = true

	e.out.Lock()
	if t.gate != nil {
		t.gate.closed = true
	}
	t.gate = &gate{s: t.volume}
	e.out.Unlock()

	e.out.Play(beep.Seq(t.gate, beep.Callback(func() {
		t.ended.Store(epoch)
	})))
}

// release removes t from the device and closes its decoder. Caller holds e.mu.
func (e *Engine) release(t *track) {
	e.out.Lock()
	if t.gate != nil {
		t.gate.closed = true
	}
	e.out.Unlock()

	if err := t.streamer.Close(); err != nil {
		e.logger.Debug("failed to close decoder", slog.String("uri", t.uri), slog.Any("error", err))
	}
}

// Unload stops and releases a loaded resource.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}
	e.release(t)
	delete(e.tracks, handle)
	return nil
}

// Play starts or resumes playback. A track that ran out is handed to the device again.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}

	e.out.Lock()
	t.ctrl.Paused = false
	e.out.Unlock()

	if !t.queued || t.ended.Load() == t.epoch {
		e.enqueue(t)
	}
	return nil
}

// Pause pauses playback.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}

	e.out.Lock()
	t.ctrl.Paused = true
	e.out.Unlock()
	return nil
}

// Seek sets the playback position. Positions past the end are clamped.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	if position < 0 {
		return domain.ErrInvalidPosition
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}

	e.out.Lock()
	defer e.out.Unlock()

	n := min(t.format.SampleRate.N(position), t.streamer.Len())
	if err := t.streamer.Seek(n); err != nil {
		return domain.NewAudioEngineError("seek", t.uri, "seek failed", err)
	}
	return nil
}

// SetVolume sets the playback volume.
func (e *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	if volume < 0.0 || volume > 1.0 || math.IsNaN(volume) {
		return domain.ErrInvalidVolume
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}

	e.out.Lock()
	t.volume.Volume = levelToVolume(volume)
	t.volume.Silent = volume <= 0
	e.out.Unlock()
	return nil
}

func (e *Engine) isInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// reportLoop sends a status for every loaded track on each tick.
func (e *Engine) reportLoop(stop <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.report()
		}
	}
}

type statusReport struct {
	cb     domain.StatusCallback
	status domain.EngineStatus
}

func (e *Engine) report() {
	e.mu.Lock()
	reports := make([]statusReport, 0, len(e.tracks))
	for _, t := range e.tracks {
		reports = append(reports, statusReport{cb: t.onStatus, status: e.status(t)})
	}
	e.mu.Unlock()

	for _, r := range reports {
		if r.cb != nil {
			r.cb(r.status)
		}
	}
}

// status samples t. Caller holds e.mu.
func (e *Engine) status(t *track) domain.EngineStatus {
	finished := t.queued && t.ended.Load() == t.epoch
	if finished {
		t.queued = false
	}

	e.out.Lock()
	defer e.out.Unlock()

	return domain.EngineStatus{
		IsLoaded:      true,
		IsPlaying:     t.queued && !t.ctrl.Paused,
		DidJustFinish: finished,
		Position:      t.format.SampleRate.D(t.streamer.Position()),
		Duration:      t.format.SampleRate.D(t.streamer.Len()),
		Err:           t.streamer.Err(),
	}
}

// levelToVolume maps a linear level in [0, 1] to beep's base-2 volume.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return MinVolumeDB
	}
	if level >= 1 {
		return 0
	}
	return (1.0 - math.Pow(level, volumeCurveExponent)) * MinVolumeDB
}

// Verify that Engine implements the PlaybackEngine interface
var _ ports.PlaybackEngine = (*Engine)(nil)
