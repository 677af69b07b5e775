package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/securenexus/identity-api/internal/core/domain"
)

const sessionKey = "session:current"

// SessionStore persists the current-session descriptor in Redis so a process
// restart rehydrates into the same base session.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, desc domain.SessionDescriptor) error {
	data, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, sessionKey, data, 0).Err()
}

// Load returns (nil, nil) when no session is stored. An unparsable payload
// or an unknown kind reports domain.ErrCorruptState so the caller can reset
// rather than crash.
func (s *SessionStore) Load(ctx context.Context) (*domain.SessionDescriptor, error) {
	data, err := s.client.Get(ctx, sessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var desc domain.SessionDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, domain.ErrCorruptState
	}
	switch desc.Kind {
	case domain.SessionAuthenticated, domain.SessionGuest, domain.SessionNone:
	default:
		return nil, domain.ErrCorruptState
	}
	return &desc, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, sessionKey).Err()
}
