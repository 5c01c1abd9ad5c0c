package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// DefaultSessionKey is the storage key of the persisted session.
const DefaultSessionKey = "audio_session"

// PersisterConfig configures a SessionPersister.
type PersisterConfig struct {
	// Key is the storage key, DefaultSessionKey when empty
	Key string

	// Timeout bounds every store call, 5s when zero
	Timeout time.Duration

	// Defaults fill missing or malformed fields on load
	Defaults domain.PersistedSession
}

// SessionPersister writes the persisted session subset to a KeyValueStore.
// Writes are fire-and-forget: they run in order on a background goroutine and
// failures are logged, never returned.
type SessionPersister struct {
	logger *slog.Logger
	store  ports.KeyValueStore
	cfg    PersisterConfig
	queue  *mailbox
}

// NewSessionPersister creates a persister and starts its writer goroutine.
func NewSessionPersister(logger *slog.Logger, store ports.KeyValueStore, cfg PersisterConfig) *SessionPersister {
	if cfg.Key == "" {
		cfg.Key = DefaultSessionKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Defaults.Playlist == nil {
		cfg.Defaults.Playlist = []domain.Track{}
	}
	if cfg.Defaults.PlaybackMode == "" {
		cfg.Defaults.PlaybackMode = domain.ModeOrdered
	}

	logger = logger.With(slog.String("service", "persister"), slog.String("key", cfg.Key))
	return &SessionPersister{
		logger: logger,
		store:  store,
		cfg:    cfg,
		queue:  newMailbox(logger),
	}
}

// Save encodes session immediately and schedules the write.
func (p *SessionPersister) Save(session domain.PersistedSession) {
	payload, err := EncodeSession(session)
	if err != nil {
		p.logger.Warn("failed to encode session", slog.Any("error", err))
		return
	}

	p.queue.post(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
		defer cancel()

		if err := p.store.Set(ctx, p.cfg.Key, payload); err != nil {
			p.logger.Warn("failed to persist session", slog.Any("error", err))
			return
		}
		p.logger.Debug("session persisted", slog.Int("bytes", len(payload)))
	})
}

// Erase schedules removal of the stored session after any pending writes.
func (p *SessionPersister) Erase() {
	p.queue.post(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
		defer cancel()

		if err := p.store.Remove(ctx, p.cfg.Key); err != nil {
			p.logger.Warn("failed to erase session", slog.Any("error", err))
			return
		}
		p.logger.Debug("session erased")
	})
}

// Load reads the stored session after any pending writes have been applied.
// A missing, unreadable or malformed entry yields the configured defaults,
// field by field.
func (p *SessionPersister) Load(ctx context.Context) domain.PersistedSession {
	result := p.defaults()

	p.queue.call(func() {
		ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()

		raw, ok, err := p.store.Get(ctx, p.cfg.Key)
		if err != nil {
			p.logger.Warn("failed to read session", slog.Any("error", err))
			return
		}
		if !ok {
			p.logger.Debug("no stored session")
			return
		}

		session, err := DecodeSession(raw, p.defaults())
		if err != nil {
			p.logger.Warn("stored session partially unreadable", slog.Any("error", err))
		}
		result = session
	})
	return result
}

// Flush waits until every write scheduled so far has been applied.
func (p *SessionPersister) Flush() {
	p.queue.call(func() {})
}

// Close applies pending writes and stops the writer goroutine.
func (p *SessionPersister) Close() {
	p.queue.close()
}

func (p *SessionPersister) defaults() domain.PersistedSession {
	out := p.cfg.Defaults
	out.Playlist = append([]domain.Track{}, p.cfg.Defaults.Playlist...)
	return out
}
