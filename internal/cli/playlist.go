package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
)

// playlistFile is the on-disk playlist format read by play and written by scan.
type playlistFile struct {
	Album  *domain.AlbumInfo `json:"album,omitempty"`
	Tracks []domain.Track    `json:"tracks"`
}

func readPlaylist(path string) (playlistFile, error) {
	var pl playlistFile

	data, err := os.ReadFile(path)
	if err != nil {
		return pl, fmt.Errorf("read playlist: %w", err)
	}
	if err := json.Unmarshal(data, &pl); err != nil {
		return pl, fmt.Errorf("parse playlist %s: %w", path, err)
	}
	return pl, nil
}

func writePlaylist(path string, pl playlistFile) error {
	data, err := encodePlaylist(pl)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

func writePlaylistTo(w io.Writer, pl playlistFile) error {
	data, err := encodePlaylist(pl)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func encodePlaylist(pl playlistFile) ([]byte, error) {
	if pl.Tracks == nil {
		pl.Tracks = []domain.Track{}
	}
	data, err := json.MarshalIndent(pl, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// totalLength sums the declared durations. known reports how many tracks had one.
func totalLength(tracks []domain.Track) (total time.Duration, known int) {
	for _, t := range tracks {
		if t.Duration != nil {
			total += *t.Duration
			known++
		}
	}
	return total, known
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
