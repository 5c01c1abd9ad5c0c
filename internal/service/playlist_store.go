// Package service provides the session logic for the StudyBeats application.
package service

import (
	"slices"
	"sync"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
)

// PlaylistStore is the ordered, mutable queue of tracks eligible for playback.
// Duplicates by ID are allowed. Index-based mutations ignore out-of-range
// indexes, so callers never need to validate them.
// All operations are thread-safe via sync.RWMutex.
type PlaylistStore struct {
	mu     sync.RWMutex
	tracks []domain.Track
	album  *domain.AlbumInfo
}

// NewPlaylistStore creates an empty playlist store.
func NewPlaylistStore() *PlaylistStore {
	return &PlaylistStore{tracks: make([]domain.Track, 0)}
}

// SetAll replaces the whole playlist and the album association.
// A nil album clears the association.
func (p *PlaylistStore) SetAll(tracks []domain.Track, album *domain.AlbumInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracks = slices.Clone(tracks)
	if p.tracks == nil {
		p.tracks = make([]domain.Track, 0)
	}
	p.album = nil
	if album != nil {
		a := *album
		p.album = &a
	}
}

// Append adds a track to the end of the playlist.
func (p *PlaylistStore) Append(track domain.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = append(p.tracks, track)
}

// RemoveAt removes the track at index. Out-of-range indexes are ignored.
// Returns true if a track was removed.
func (p *PlaylistStore) RemoveAt(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = slices.Delete(p.tracks, index, index+1)
	return true
}

// Move extracts the track at from and reinserts it at to, where to is an
// index into the already shortened playlist. [A B C D] with Move(0, 2)
// becomes [B C A D]. Out-of-range indexes are ignored.
// Returns true if the playlist changed.
func (p *PlaylistStore) Move(from, to int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.tracks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return false
	}

	track := p.tracks[from]
	p.tracks = slices.Delete(p.tracks, from, from+1)
	p.tracks = slices.Insert(p.tracks, to, track)
	return true
}

// Clear removes every track and the album association.
func (p *PlaylistStore) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = make([]domain.Track, 0)
	p.album = nil
}

// Tracks returns a copy of the playlist.
func (p *PlaylistStore) Tracks() []domain.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Len returns the number of tracks.
func (p *PlaylistStore) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tracks)
}

// At returns the track at index.
func (p *PlaylistStore) At(index int) (domain.Track, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if index < 0 || index >= len(p.tracks) {
		return domain.Track{}, false
	}
	return p.tracks[index], true
}

// Album returns a copy of the album association, or nil.
func (p *PlaylistStore) Album() *domain.AlbumInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.album == nil {
		return nil
	}
	a := *p.album
	return &a
}

// ActiveIndex returns the first position of the track with the given ID, or domain.NoTrack.
func (p *PlaylistStore) ActiveIndex(id string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.IndexOf(p.tracks, id)
}
