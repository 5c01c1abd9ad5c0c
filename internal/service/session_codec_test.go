package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
)

func TestSessionCodec_Encode(t *testing.T) {
	d := 200 * time.Second
	raw, err := EncodeSession(domain.PersistedSession{
		Playlist:     []domain.Track{{ID: "A", Title: "Alpha", URL: "https://cdn.test/a.mp3", Duration: &d}},
		PlaybackMode: domain.ModeLoopAll,
		Volume:       1.7,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"playlist": [{"id":"A","title":"Alpha","url":"https://cdn.test/a.mp3","duration":200}],
		"playbackMode": "loop-all",
		"volume": 1
	}`, raw)
}

func TestSessionCodec_EncodeNilPlaylist(t *testing.T) {
	raw, err := EncodeSession(domain.PersistedSession{PlaybackMode: domain.ModeOrdered, Volume: 0.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"playlist":[],"playbackMode":"ordered","volume":0.5}`, raw)
}

func TestSessionCodec_RoundTrip(t *testing.T) {
	in := domain.PersistedSession{
		Playlist:     tracksNamed("A", "B", "A"),
		PlaybackMode: domain.ModeLoopOne,
		Volume:       0.35,
	}
	raw, err := EncodeSession(in)
	require.NoError(t, err)

	out, err := DecodeSession(raw, domain.DefaultPersistedSession())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSessionCodec_PartialCorruption(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		playlist []string
		mode     domain.PlaybackMode
		volume   float64
	}{
		{
			name:     "bad volume keeps playlist and mode",
			raw:      `{"playlist":[{"id":"A","url":"https://x.test/a.mp3"}],"playbackMode":"loop-all","volume":"loud"}`,
			playlist: []string{"A"},
			mode:     domain.ModeLoopAll,
			volume:   domain.DefaultVolume,
		},
		{
			name:     "unknown mode",
			raw:      `{"playlist":[],"playbackMode":"party","volume":0.2}`,
			playlist: []string{},
			mode:     domain.ModeOrdered,
			volume:   0.2,
		},
		{
			name:     "playlist not an array",
			raw:      `{"playlist":{"id":"A"},"playbackMode":"shuffle","volume":0.9}`,
			playlist: []string{},
			mode:     domain.ModeShuffle,
			volume:   0.9,
		},
		{
			name:     "one bad entry is dropped",
			raw:      `{"playlist":[{"id":"A"},42,{"title":"no id"},{"id":"B"}],"volume":0.4}`,
			playlist: []string{"A", "B"},
			mode:     domain.ModeOrdered,
			volume:   0.4,
		},
		{
			name:     "volume out of range is clamped",
			raw:      `{"volume":-3}`,
			playlist: []string{},
			mode:     domain.ModeOrdered,
			volume:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := DecodeSession(tt.raw, domain.DefaultPersistedSession())
			assert.Equal(t, tt.playlist, ids(out.Playlist))
			assert.Equal(t, tt.mode, out.PlaybackMode)
			assert.InDelta(t, tt.volume, out.Volume, 1e-9)
		})
	}
}

func TestSessionCodec_GarbageFallsBackToDefaults(t *testing.T) {
	out, err := DecodeSession("not json at all", domain.DefaultPersistedSession())
	assert.Error(t, err)
	assert.Equal(t, domain.DefaultPersistedSession(), out)
}

func TestSessionCodec_ReportsProblems(t *testing.T) {
	_, err := DecodeSession(`{"playbackMode":7}`, domain.DefaultPersistedSession())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "playbackMode")
}
