// Package dedupe short-circuits webhook redelivery. Reconciliation is already
// idempotent, so this is an optimization, not a correctness requirement: a
// remembered event id lets the webhook handler acknowledge a redelivery
// without another gateway round-trip.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix = "webhook:event:"
	// eventTTL bounds memory; the gateway stops redelivering well within it.
	eventTTL = 72 * time.Hour
)

// RedisStore remembers processed webhook event ids with a TTL.
// A nil *RedisStore is valid and disables deduplication, so callers don't
// branch on whether Redis is configured.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed dedupe store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Seen reports whether the event id was already processed.
func (s *RedisStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if s == nil || eventID == "" {
		return false, nil
	}
	err := s.client.Get(ctx, eventKeyPrefix+eventID).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("check webhook event: %w", err)
	}
	return true, nil
}

// Mark remembers an event id. Best effort: a failed mark only means the next
// redelivery does a redundant (harmless) reconciliation.
func (s *RedisStore) Mark(ctx context.Context, eventID string) error {
	if s == nil || eventID == "" {
		return nil
	}
	if err := s.client.Set(ctx, eventKeyPrefix+eventID, "1", eventTTL).Err(); err != nil {
		return fmt.Errorf("mark webhook event: %w", err)
	}
	return nil
}
