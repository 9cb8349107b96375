package session

import (
	"context"
	"sync"
	"time"

	"github.com/deepgram/taskboard/internal/infrastructure/redis"
	"github.com/rs/zerolog/log"
)

const revokedKeyPrefix = "revoked_session:"

// RevocationStore remembers signed-out session ids until their ceiling.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewRevocationStore picks Redis when available and falls back to memory.
func NewRevocationStore(redisService *redis.Service) RevocationStore {
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			log.Error().Err(err).Msg("Redis connection failed")
			log.Warn().Msg("Falling back to in-memory session revocation storage")
			return NewMemoryStore(nil)
		}
		log.Info().Msg("Using Redis for session revocation storage")
		return &RedisStore{redisService: redisService}
	}

	log.Info().Msg("Using in-memory session revocation storage")
	return NewMemoryStore(nil)
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		revoked: make(map[string]time.Time),
		now:     now,
	}
}

// Redis Store implementation
func (rs *RedisStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return rs.redisService.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl)
}

func (rs *RedisStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	return rs.redisService.Exists(ctx, revokedKeyPrefix+sessionID)
}

// Memory Store implementation
func (ms *MemoryStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.revoked[sessionID] = ms.now().Add(ttl)
	return nil
}

func (ms *MemoryStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for id, until := range ms.revoked {
		if !now.Before(until) {
			delete(ms.revoked, id)
		}
	}

	_, revoked := ms.revoked[sessionID]
	return revoked, nil
}
