package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
)

// EncodeSession serializes the persisted subset of the session as JSON.
func EncodeSession(session domain.PersistedSession) (string, error) {
	if session.Playlist == nil {
		session.Playlist = []domain.Track{}
	}
	session.Volume = domain.ClampVolume(session.Volume)

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	return string(data), nil
}

// DecodeSession parses a stored session field by field.
// Every field that is missing or malformed falls back to the matching field of
// defaults without discarding the others. Individual playlist entries that
// cannot be decoded are dropped. The returned error describes what was
// replaced and is meant for logging only; the session is always usable.
func DecodeSession(raw string, defaults domain.PersistedSession) (domain.PersistedSession, error) {
	out := defaults
	out.Playlist = append([]domain.Track{}, defaults.Playlist...)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return out, fmt.Errorf("decode session: %w", err)
	}

	var problems []error

	if data, ok := fields["playlist"]; ok {
		playlist, err := decodePlaylist(data)
		if err != nil {
			problems = append(problems, err)
		}
		if playlist != nil {
			out.Playlist = playlist
		}
	}

	if data, ok := fields["playbackMode"]; ok {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			problems = append(problems, fmt.Errorf("playbackMode: %w", err))
		} else if mode, ok := domain.ParsePlaybackMode(s); ok {
			out.PlaybackMode = mode
		} else {
			problems = append(problems, fmt.Errorf("playbackMode: unknown mode %q", s))
		}
	}

	if data, ok := fields["volume"]; ok {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			problems = append(problems, fmt.Errorf("volume: %w", err))
		} else {
			out.Volume = domain.ClampVolume(v)
		}
	}

	return out, errors.Join(problems...)
}

// decodePlaylist returns nil when data is not a JSON array at all.
func decodePlaylist(data json.RawMessage) ([]domain.Track, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("playlist: %w", err)
	}

	tracks := make([]domain.Track, 0, len(items))
	var problems []error
	for i, item := range items {
		var track domain.Track
		if err := json.Unmarshal(item, &track); err != nil {
			problems = append(problems, fmt.Errorf("playlist[%d]: %w", i, err))
			continue
		}
		if track.ID == "" {
			problems = append(problems, fmt.Errorf("playlist[%d]: missing id", i))
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, errors.Join(problems...)
}
