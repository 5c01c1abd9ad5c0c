package service

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/studybeats/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/logger"
)

const testBaseURL = "http://192.168.1.10:8080/music"

// writeMinimalMP3 creates an MP3 frame header followed by padding.
func writeMinimalMP3(t *testing.T, path string) {
	t.Helper()
	frame := make([]byte, 417)
	frame[0] = 0xff
	frame[1] = 0xfb
	frame[2] = 0x90
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, frame, 0o600))
}

func writeTaggedMP3(t *testing.T, path, title, artist, album string) {
	t.Helper()
	writeMinimalMP3(t, path)

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tag.SetTitle(title)
	tag.SetArtist(artist)
	tag.SetAlbum(album)
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())
}

// newCatalogFixture lays out:
//
//	b.mp3             untagged
//	notes.txt         ignored
//	sub/My Song.flac  not a real FLAC file
//	tagged.mp3        ID3v2 tags
func newCatalogFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeMinimalMP3(t, filepath.Join(dir, "b.mp3"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not audio"), 0o600))
	writeMinimalMP3(t, filepath.Join(dir, "sub", "My Song.flac"))
	writeTaggedMP3(t, filepath.Join(dir, "tagged.mp3"), "Rainfall", "Lo Fi Crew", "Night Study")

	return dir
}

type scanRecorder struct {
	mu     sync.Mutex
	events []domain.EventType
}

func (r *scanRecorder) handle(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Type())
}

func (r *scanRecorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.EventType(nil), r.events...)
}

func newCatalogService(t *testing.T) (*CatalogService, *eventbus.SyncEventBus, *scanRecorder) {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	t.Cleanup(func() { bus.Close() })

	rec := &scanRecorder{}
	bus.SubscribeAll(rec.handle)
	return NewCatalogService(log, bus), bus, rec
}

func TestCatalogService_ScanFolder(t *testing.T) {
	svc, _, rec := newCatalogService(t)
	dir := newCatalogFixture(t)

	tracks, err := svc.ScanFolder(context.Background(), dir, testBaseURL)
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, "b", tracks[0].Title)
	assert.Equal(t, testBaseURL+"/b.mp3", tracks[0].URL)
	assert.Empty(t, tracks[0].AlbumID)

	assert.Equal(t, "My Song", tracks[1].Title)
	assert.Equal(t, testBaseURL+"/sub/My%20Song.flac", tracks[1].URL)

	assert.Equal(t, "Rainfall", tracks[2].Title)
	assert.Equal(t, "Lo Fi Crew", tracks[2].Artist)
	base, _ := url.Parse(testBaseURL)
	assert.Equal(t, AlbumID(base, "Night Study"), tracks[2].AlbumID)

	for _, track := range tracks {
		assert.NoError(t, domain.ValidateSourceURI(track.URL))
		assert.NotEmpty(t, track.ID)
		assert.Nil(t, track.Duration)
	}

	assert.Equal(t, []domain.EventType{
		domain.EventScanStarted,
		domain.EventScanProgress,
		domain.EventScanProgress,
		domain.EventScanProgress,
		domain.EventScanCompleted,
	}, rec.types())
	assert.False(t, svc.IsScanning())
}

func TestCatalogService_IDsAreStable(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	dir := newCatalogFixture(t)

	first, err := svc.ScanFolder(context.Background(), dir, testBaseURL)
	require.NoError(t, err)
	second, err := svc.ScanFolder(context.Background(), dir, testBaseURL)
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))

	other, err := svc.ScanFolder(context.Background(), dir, "https://mirror.studybeats.test/music")
	require.NoError(t, err)
	assert.NotEqual(t, ids(first), ids(other))
}

func TestCatalogService_RejectsBadInput(t *testing.T) {
	svc, _, rec := newCatalogService(t)
	dir := newCatalogFixture(t)

	_, err := svc.ScanFolder(context.Background(), dir, "ftp://files.local/music")
	assert.True(t, errors.Is(err, domain.ErrInvalidSourceURI))

	_, err = svc.ScanFolder(context.Background(), filepath.Join(dir, "missing"), testBaseURL)
	var serr *domain.ServiceError
	assert.True(t, errors.As(err, &serr))

	_, err = svc.ScanFolder(context.Background(), filepath.Join(dir, "b.mp3"), testBaseURL)
	assert.True(t, errors.As(err, &serr))

	assert.Empty(t, rec.types())
}

func TestCatalogService_CancelledContext(t *testing.T) {
	svc, _, rec := newCatalogService(t)
	dir := newCatalogFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tracks, err := svc.ScanFolder(ctx, dir, testBaseURL)
	assert.ErrorIs(t, err, domain.ErrScanCancelled)
	assert.Empty(t, tracks)
	assert.Equal(t, []domain.EventType{domain.EventScanStarted, domain.EventScanCancelled}, rec.types())
	assert.False(t, svc.IsScanning())
}

func TestCatalogService_CancelScanMidway(t *testing.T) {
	svc, bus, rec := newCatalogService(t)
	dir := newCatalogFixture(t)

	bus.Subscribe(domain.EventScanProgress, func(domain.Event) {
		assert.True(t, svc.IsScanning())
		assert.NoError(t, svc.CancelScan())
	})

	tracks, err := svc.ScanFolder(context.Background(), dir, testBaseURL)
	assert.ErrorIs(t, err, domain.ErrScanCancelled)
	assert.Len(t, tracks, 1)

	types := rec.types()
	assert.Equal(t, domain.EventScanCancelled, types[len(types)-1])

	var serr *domain.ServiceError
	assert.True(t, errors.As(svc.CancelScan(), &serr), "no scan in progress")
}

func TestCatalogService_SecondScanIsRejected(t *testing.T) {
	svc, bus, _ := newCatalogService(t)
	dir := newCatalogFixture(t)

	var nestedErr error
	bus.Subscribe(domain.EventScanStarted, func(domain.Event) {
		_, nestedErr = svc.ScanFolder(context.Background(), dir, testBaseURL)
	})

	_, err := svc.ScanFolder(context.Background(), dir, testBaseURL)
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, domain.ErrScanInProgress)
}

func TestCatalogService_IsFormatSupported(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.wav", true},
		{"song.opus", false},
		{"song.txt", false},
		{"song", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := svc.IsFormatSupported(tt.path); got != tt.want {
				t.Errorf("IsFormatSupported(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	formats := svc.SupportedFormats()
	formats[0] = ".changed"
	assert.True(t, svc.IsFormatSupported("song.mp3"))
}
