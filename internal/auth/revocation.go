package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// RevocationStore tracks revoked session tokens by their jti claim. Keys
// expire with the token itself, so the set never needs manual cleanup.
type RevocationStore struct {
	redis *redis.Client
}

func NewRevocationStore(redisClient *redis.Client) *RevocationStore {
	return &RevocationStore{redis: redisClient}
}

func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		// already expired; nothing to revoke
		return nil
	}
	if err := s.redis.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", jti, err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check session %s: %w", jti, err)
	}
	return n > 0, nil
}
