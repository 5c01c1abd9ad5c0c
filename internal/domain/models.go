// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the StudyBeats audio session.
package domain

import (
	"encoding/json"
	"time"
)

// DefaultVolume is the volume a fresh session starts with.
const DefaultVolume = 0.7

// FallbackTrackDuration is used when neither the catalog nor the engine
// has reported a duration for the current track yet.
const FallbackTrackDuration = 180 * time.Second

// Track represents a single playable audio item from the remote catalog.
// Tracks are immutable once fetched; the playlist references them by value.
type Track struct {
	// ID is unique within a catalog. The same ID may appear more than once in a playlist.
	ID string

	// Title is the display title
	Title string

	// Artist is optional
	Artist string

	// URL is the source URI handed to the playback engine
	URL string

	// Duration is the declared length of the track, nil when unknown
	Duration *time.Duration

	// AlbumID is the owning album identifier
	AlbumID string
}

// trackJSON is the persisted/wire layout of a Track. Duration is stored in seconds.
type trackJSON struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist,omitempty"`
	URL      string   `json:"url"`
	Duration *float64 `json:"duration,omitempty"`
	AlbumID  string   `json:"albumId,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Track) MarshalJSON() ([]byte, error) {
	out := trackJSON{
		ID:      t.ID,
		Title:   t.Title,
		Artist:  t.Artist,
		URL:     t.URL,
		AlbumID: t.AlbumID,
	}
	if t.Duration != nil {
		secs := t.Duration.Seconds()
		out.Duration = &secs
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Track) UnmarshalJSON(data []byte) error {
	var in trackJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Track{
		ID:      in.ID,
		Title:   in.Title,
		Artist:  in.Artist,
		URL:     in.URL,
		AlbumID: in.AlbumID,
	}
	if in.Duration != nil && *in.Duration > 0 {
		d := time.Duration(*in.Duration * float64(time.Second))
		t.Duration = &d
	}
	return nil
}

// DurationOr returns the declared duration, or fallback when unknown.
func (t Track) DurationOr(fallback time.Duration) time.Duration {
	if t.Duration == nil || *t.Duration <= 0 {
		return fallback
	}
	return *t.Duration
}

// AlbumInfo is the album a playlist was started from.
// It is independent of any single track's AlbumID.
type AlbumInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlaybackMode governs end-of-track and next/previous behaviour.
type PlaybackMode string

const (
	// ModeOrdered plays the playlist once in insertion order and stops at the end
	ModeOrdered PlaybackMode = "ordered"

	// ModeShuffle picks a uniformly random entry for every next/previous
	ModeShuffle PlaybackMode = "shuffle"

	// ModeLoopOne restarts the current track when it finishes
	ModeLoopOne PlaybackMode = "loop-one"

	// ModeLoopAll wraps around at both ends of the playlist
	ModeLoopAll PlaybackMode = "loop-all"
)

// PlaybackModes lists every valid mode in display order.
var PlaybackModes = []PlaybackMode{ModeOrdered, ModeShuffle, ModeLoopOne, ModeLoopAll}

// ParsePlaybackMode converts a string to a PlaybackMode.
// The second return value is false for unknown input.
func ParsePlaybackMode(s string) (PlaybackMode, bool) {
	for _, m := range PlaybackModes {
		if string(m) == s {
			return m, true
		}
	}
	return ModeOrdered, false
}

// String returns the persisted representation of the mode.
func (m PlaybackMode) String() string {
	return string(m)
}

// SessionSnapshot is the complete, UI-facing state of the audio session.
type SessionSnapshot struct {
	// CurrentSong is the loaded (or last attempted) track, nil when idle
	CurrentSong *Track

	// CurrentAlbum is the album the playlist was started from, if any
	CurrentAlbum *AlbumInfo

	// Playlist is a copy of the playlist store's content
	Playlist []Track

	IsPlaying bool
	IsLoading bool

	// Shuffle is independent of PlaybackMode and takes priority over it
	Shuffle bool

	PlaybackMode PlaybackMode

	// CurrentTime is the elapsed time within the current track
	CurrentTime time.Duration

	// Duration is a best-effort length of the current track
	Duration time.Duration

	// Volume is always within [0, 1]
	Volume float64
}

// DefaultSnapshot returns the state of a freshly started session.
func DefaultSnapshot() SessionSnapshot {
	return SessionSnapshot{
		Playlist:     []Track{},
		PlaybackMode: ModeOrdered,
		Volume:       DefaultVolume,
	}
}

// Clone returns a deep copy that shares no mutable state with s.
func (s SessionSnapshot) Clone() SessionSnapshot {
	out := s
	if s.CurrentSong != nil {
		song := *s.CurrentSong
		out.CurrentSong = &song
	}
	if s.CurrentAlbum != nil {
		album := *s.CurrentAlbum
		out.CurrentAlbum = &album
	}
	out.Playlist = make([]Track, len(s.Playlist))
	copy(out.Playlist, s.Playlist)
	return out
}

// Persisted extracts the subset of the snapshot that survives restarts.
func (s SessionSnapshot) Persisted() PersistedSession {
	playlist := make([]Track, len(s.Playlist))
	copy(playlist, s.Playlist)
	return PersistedSession{
		Playlist:     playlist,
		PlaybackMode: s.PlaybackMode,
		Volume:       s.Volume,
	}
}

// PersistedSession is the subset of the snapshot stored under one key as JSON.
type PersistedSession struct {
	Playlist     []Track      `json:"playlist"`
	PlaybackMode PlaybackMode `json:"playbackMode"`
	Volume       float64      `json:"volume"`
}

// DefaultPersistedSession is what a missing or unreadable entry falls back to.
func DefaultPersistedSession() PersistedSession {
	return PersistedSession{
		Playlist:     []Track{},
		PlaybackMode: ModeOrdered,
		Volume:       DefaultVolume,
	}
}

// ClampVolume limits v to [0, 1].
func ClampVolume(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// TrackHandle represents a handle to a resource loaded in the playback engine.
// This is an opaque identifier; the controller never inspects it.
type TrackHandle int64

const (
	// InvalidTrackHandle represents an invalid or uninitialized track handle
	InvalidTrackHandle TrackHandle = 0
)

// LoadOptions are passed to the engine together with the URI.
type LoadOptions struct {
	Autoplay bool
	Volume   float64
}

// EngineStatus is the periodic status report of a loaded engine resource.
type EngineStatus struct {
	IsLoaded      bool
	IsPlaying     bool
	DidJustFinish bool
	Position      time.Duration
	Duration      time.Duration

	// Err is set when the engine lost the resource asynchronously
	Err error
}

// StatusCallback receives engine status updates. It may be invoked from any goroutine.
type StatusCallback func(EngineStatus)

// ScanProgress represents the progress of a catalog scan operation.
type ScanProgress struct {
	// CurrentFile is the file currently being scanned
	CurrentFile string

	// FilesScanned is the number of files processed so far
	FilesScanned int

	// TotalFiles is the total number of files to scan
	TotalFiles int

	// TracksFound is the number of tracks added to the catalog
	TracksFound int
}

// Percentage returns the completion percentage (0-100), or -1 if total is unknown.
func (p ScanProgress) Percentage() float64 {
	if p.TotalFiles <= 0 {
		return -1
	}
	return float64(p.FilesScanned) / float64(p.TotalFiles) * 100.0
}
