// Package domain defines events for the event-driven architecture.
// Events let UI layers follow the session without polling the controller.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Session events
	EventSessionChanged EventType = "session.changed"
	EventSessionCleared EventType = "session.cleared"

	// Playback events
	EventTrackLoading   EventType = "track.loading"
	EventTrackStarted   EventType = "track.started"
	EventTrackCompleted EventType = "track.completed"
	EventTrackError     EventType = "track.error"

	// Settings events
	EventVolumeChanged EventType = "volume.changed"
	EventModeChanged   EventType = "mode.changed"

	// Playlist events
	EventPlaylistUpdated EventType = "playlist.updated"

	// Catalog scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// SessionChangedEvent carries a copy of the snapshot after every applied change.
type SessionChangedEvent struct {
	baseEvent
	Snapshot SessionSnapshot
}

// Type returns the event type.
func (e SessionChangedEvent) Type() EventType { return EventSessionChanged }

// NewSessionChangedEvent creates a new SessionChangedEvent.
func NewSessionChangedEvent(snapshot SessionSnapshot) SessionChangedEvent {
	return SessionChangedEvent{baseEvent: newBaseEvent(), Snapshot: snapshot}
}

// SessionClearedEvent is published after a full stop-and-clear.
type SessionClearedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e SessionClearedEvent) Type() EventType { return EventSessionCleared }

// NewSessionClearedEvent creates a new SessionClearedEvent.
func NewSessionClearedEvent() SessionClearedEvent {
	return SessionClearedEvent{baseEvent: newBaseEvent()}
}

// TrackLoadingEvent is published when the engine is asked to load a track.
type TrackLoadingEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackLoadingEvent) Type() EventType { return EventTrackLoading }

// NewTrackLoadingEvent creates a new TrackLoadingEvent.
func NewTrackLoadingEvent(track Track) TrackLoadingEvent {
	return TrackLoadingEvent{baseEvent: newBaseEvent(), Track: track}
}

// TrackStartedEvent is published when a track was loaded and started.
type TrackStartedEvent struct {
	baseEvent
	Track    Track
	Duration time.Duration
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType { return EventTrackStarted }

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, duration time.Duration) TrackStartedEvent {
	return TrackStartedEvent{baseEvent: newBaseEvent(), Track: track, Duration: duration}
}

// TrackCompletedEvent is published when a track finishes playing naturally.
type TrackCompletedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType { return EventTrackCompleted }

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(track Track) TrackCompletedEvent {
	return TrackCompletedEvent{baseEvent: newBaseEvent(), Track: track}
}

// TrackErrorEvent is published when a track could not be validated or loaded.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType { return EventTrackError }

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{baseEvent: newBaseEvent(), Track: track, Error: err}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType { return EventVolumeChanged }

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{baseEvent: newBaseEvent(), Volume: volume}
}

// ModeChangedEvent is published when the playback mode or shuffle flag changes.
type ModeChangedEvent struct {
	baseEvent
	Mode    PlaybackMode
	Shuffle bool
}

// Type returns the event type.
func (e ModeChangedEvent) Type() EventType { return EventModeChanged }

// NewModeChangedEvent creates a new ModeChangedEvent.
func NewModeChangedEvent(mode PlaybackMode, shuffle bool) ModeChangedEvent {
	return ModeChangedEvent{baseEvent: newBaseEvent(), Mode: mode, Shuffle: shuffle}
}

// PlaylistUpdatedEvent is published when the playlist content changes.
type PlaylistUpdatedEvent struct {
	baseEvent
	Playlist []Track
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType { return EventPlaylistUpdated }

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(playlist []Track) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{baseEvent: newBaseEvent(), Playlist: playlist}
}

// ScanStartedEvent is published when a catalog scan starts.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType { return EventScanStarted }

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{baseEvent: newBaseEvent(), Path: path}
}

// ScanProgressEvent is published for every file processed during a scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType { return EventScanProgress }

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{baseEvent: newBaseEvent(), Progress: progress}
}

// ScanCompletedEvent is published when a catalog scan completes.
type ScanCompletedEvent struct {
	baseEvent
	Tracks []Track
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType { return EventScanCompleted }

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(tracks []Track) ScanCompletedEvent {
	return ScanCompletedEvent{baseEvent: newBaseEvent(), Tracks: tracks}
}

// ScanCancelledEvent is published when a catalog scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType { return EventScanCancelled }

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{baseEvent: newBaseEvent(), Reason: reason}
}
