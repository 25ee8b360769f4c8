package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tilelens/backend/internal/domain"
)

// SessionStore persists search sessions as JSON in a CacheRepository
type SessionStore struct {
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewSessionStore creates a session store; ttl defaults to one hour
func NewSessionStore(cache domain.CacheRepository, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{cache: cache, ttl: ttl}
}

// GetSession loads a session, returning ErrSessionNotFound on a cache miss
func (s *SessionStore) GetSession(ctx context.Context, id string) (*domain.SearchSession, error) {
	data, err := s.cache.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.SearchSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// SaveSession overwrites any previous session with the same id
func (s *SessionStore) SaveSession(ctx context.Context, session *domain.SearchSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.cache.Set(ctx, sessionKey(session.ID), data, s.ttl)
}

// sessionKey format: "session:{id}"
func sessionKey(id string) string {
	return "session:" + id
}
