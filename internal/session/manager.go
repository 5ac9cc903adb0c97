// Package session keeps one poster store per browser session in memory.
package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/lpcrm/reminder-poster/internal/poster"
)

var ErrNotFound = errors.New("session: not found")

// Manager hands out stores keyed by session id. Sessions expire after ttl
// without access; nothing is persisted.
type Manager struct {
	items   *cache.Cache
	ttl     time.Duration
	encoder poster.QREncoder
	logger  *slog.Logger
}

func NewManager(ttl time.Duration, encoder poster.QREncoder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	m := &Manager{
		items:   cache.New(ttl, ttl/2),
		ttl:     ttl,
		encoder: encoder,
		logger:  logger,
	}
	m.items.OnEvicted(func(id string, _ interface{}) {
		m.logger.Info("session ended", "session_id", id)
	})
	return m
}

// Create starts a session with an empty poster.
func (m *Manager) Create() (string, *poster.Store) {
	id := uuid.NewString()
	store := poster.NewStore(m.encoder, m.logger.With("session_id", id))
	m.items.Set(id, store, cache.DefaultExpiration)
	m.logger.Info("session started", "session_id", id)
	return id, store
}

// Get returns the store for id and extends its lifetime.
func (m *Manager) Get(id string) (*poster.Store, error) {
	v, ok := m.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	store, ok := v.(*poster.Store)
	if !ok {
		return nil, ErrNotFound
	}
	m.items.Set(id, store, cache.DefaultExpiration)
	return store, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	if _, ok := m.items.Get(id); !ok {
		return ErrNotFound
	}
	m.items.Delete(id)
	return nil
}

func (m *Manager) Len() int {
	return m.items.ItemCount()
}
