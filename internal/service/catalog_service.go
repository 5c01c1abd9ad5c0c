package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// CatalogService builds track catalogs from a folder of audio files that is
// also served over HTTP, so every track gets a streamable URL.
// All operations are thread-safe via sync.Mutex.
type CatalogService struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus

	// State
	scanning      bool
	cancelScan    context.CancelFunc
	supportedExts []string

	// Concurrency control
	mu sync.Mutex
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(logger *slog.Logger, bus ports.EventBus) *CatalogService {
	return &CatalogService{
		logger: logger.With(slog.String("service", "catalog")),
		bus:    bus,
		// Formats the stream engine can decode
		supportedExts: []string{".mp3", ".flac", ".fla", ".wav"},
	}
}

// ScanFolder walks dir recursively and returns one Track per supported audio file.
//
// baseURL is where dir is served; a file at dir/a/b.mp3 gets the URL
// baseURL/a/b.mp3. Track IDs are derived from the URL and album IDs from the
// album name, so scanning the same folder twice yields the same IDs.
//
// Files with unreadable tags are still included, titled after their file name.
// On cancellation the tracks found so far are returned with domain.ErrScanCancelled.
func (s *CatalogService) ScanFolder(ctx context.Context, dir, baseURL string) ([]domain.Track, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.NewServiceError("CatalogService", "ScanFolder", "cannot read folder", err)
	}
	if !info.IsDir() {
		return nil, domain.NewServiceError("CatalogService", "ScanFolder", "not a folder: "+dir, nil)
	}

	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.ErrScanInProgress
	}
	s.scanning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancelScan = cancel
	s.mu.Unlock()

	// Ensure cleanup
	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	s.logger.Info("scan started", slog.String("dir", dir), slog.String("base_url", base.String()))
	s.bus.Publish(domain.NewScanStartedEvent(dir))

	files, err := s.collectAudioFiles(ctx, dir)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, s.cancelled(err)
		}
		return nil, domain.NewServiceError("CatalogService", "ScanFolder", "walk failed", err)
	}

	tracks := make([]domain.Track, 0, len(files))
	total := len(files)

	for i, path := range files {
		// Check for cancellation
		if err := ctx.Err(); err != nil {
			return tracks, s.cancelled(err)
		}

		track, err := s.readTrack(dir, path, base)
		if err != nil {
			s.logger.Warn("skipping file", slog.String("path", path), slog.Any("error", err))
		} else {
			tracks = append(tracks, track)
		}

		s.bus.Publish(domain.NewScanProgressEvent(domain.ScanProgress{
			CurrentFile:  path,
			FilesScanned: i + 1,
			TotalFiles:   total,
			TracksFound:  len(tracks),
		}))
	}

	s.logger.Info("scan completed", slog.Int("files", total), slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))

	return tracks, nil
}

func (s *CatalogService) cancelled(cause error) error {
	s.logger.Info("scan cancelled", slog.Any("cause", cause))
	s.bus.Publish(domain.NewScanCancelledEvent(cause.Error()))
	return domain.ErrScanCancelled
}

// CancelScan cancels the currently running scan operation.
func (s *CatalogService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("CatalogService", "CancelScan", "no scan in progress", nil)
	}

	if s.cancelScan != nil {
		s.cancelScan()
	}

	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *CatalogService) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// IsFormatSupported checks if a file format is supported.
func (s *CatalogService) IsFormatSupported(path string) bool {
	return slices.Contains(s.supportedExts, strings.ToLower(filepath.Ext(path)))
}

// SupportedFormats returns the list of supported file extensions.
func (s *CatalogService) SupportedFormats() []string {
	return slices.Clone(s.supportedExts)
}

// Shutdown cancels any running scan.
func (s *CatalogService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

// collectAudioFiles recursively collects all audio files in a directory, in lexical order.
func (s *CatalogService) collectAudioFiles(ctx context.Context, dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			// Skip files/folders we can't access
			s.logger.Debug("skipping unreadable entry", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !s.IsFormatSupported(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// readTrack builds a Track from the tags of one file.
func (s *CatalogService) readTrack(root, path string, base *url.URL) (domain.Track, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return domain.Track{}, err
	}

	trackURL := base.JoinPath(strings.Split(filepath.ToSlash(rel), "/")...).String()

	track := domain.Track{
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte(trackURL)).String(),
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		URL:   trackURL,
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.Track{}, err
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		// If tag reading fails, keep the file name as title
		s.logger.Debug("no readable tags", slog.String("path", path), slog.Any("error", err))
		return track, nil
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(metadata.Artist())

	if album := strings.TrimSpace(metadata.Album()); album != "" {
		track.AlbumID = AlbumID(base, album)
	}

	return track, nil
}

// AlbumID returns the stable identifier of the named album under base.
func AlbumID(base *url.URL, album string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(base.String()+"#album/"+strings.ToLower(album))).String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	if err := domain.ValidateSourceURI(raw); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, domain.NewValidationError("url", raw, "base URL is not a valid URL")
	}
	return u, nil
}
