// Package ports define interfaces for dependency inversion.
// These interfaces allow the session logic to remain independent of audio libraries, storage and UI toolkits.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
)

// PlaybackEngine is the interface for streaming audio engines.
// This abstracts the underlying audio library and allows for testing with mocks.
//
// At most one resource is expected to be loaded at a time; the controller unloads
// the previous handle before loading the next one.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type PlaybackEngine interface {
	// Lifecycle methods

	// Initialize prepares the output device.
	// Returns domain.ErrAlreadyInitialized when called twice.
	Initialize() error

	// Shutdown releases all engine resources, including loaded tracks.
	Shutdown() error

	// Track loading methods

	// Load opens the remote resource at uri and returns a handle to it.
	//
	// opts.Autoplay starts playback as soon as the resource is ready.
	// opts.Volume is the initial volume in [0, 1].
	//
	// onStatus receives periodic status updates for this resource until it is
	// unloaded. It may be called from any goroutine, including after Load returns.
	//
	// Returns a TrackHandle, or an error if the resource cannot be opened or decoded.
	Load(uri string, opts domain.LoadOptions, onStatus domain.StatusCallback) (domain.TrackHandle, error)

	// Unload stops and releases a loaded resource.
	// Callbacks already in flight may still arrive after Unload returns.
	//
	// Returns an error if the handle is invalid.
	Unload(handle domain.TrackHandle) error

	// Playback control methods

	// Play starts or resumes playback.
	// A resource that has finished restarts from its current position.
	Play(handle domain.TrackHandle) error

	// Pause pauses playback and keeps the position.
	Pause(handle domain.TrackHandle) error

	// Seek sets the playback position. Positions past the end are clamped.
	//
	// Returns domain.ErrInvalidPosition for negative positions.
	Seek(handle domain.TrackHandle, position time.Duration) error

	// SetVolume sets the playback volume for the specified track.
	// volume: Volume level from 0.0 (silent) to 1.0 (full volume)
	//
	// Returns domain.ErrInvalidVolume if the volume is out of range.
	SetVolume(handle domain.TrackHandle, volume float64) error
}
