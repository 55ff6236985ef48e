package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the authenticated flag for each live session.
type SessionStore interface {
	Create(ctx context.Context, sessionID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "ledger:session:"

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore keeps session flags in Redis with a TTL.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Create(ctx context.Context, sessionID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, "1", ttl).Err()
}

func (s *redisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	count, err := s.client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemorySessionStore keeps session flags in process memory. Flags vanish on restart.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (s *memorySessionStore) Create(_ context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = s.now().Add(ttl)
	return nil
}

func (s *memorySessionStore) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expires) {
		delete(s.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (s *memorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
