// Package redis provides Redis-based adapters for the fetch bot.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/adverity-fetchbot/internal/core"
)

const (
	defaultClaimPrefix = "fetchbot:notified:"
	defaultClaimTTL    = 24 * time.Hour
)

// ClaimStore reserves notification keys with SET NX so that only one worker
// delivers the terminal notice for a job.
type ClaimStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var _ core.NotificationClaims = (*ClaimStore)(nil)

// ClaimStoreOptions configures a ClaimStore.
type ClaimStoreOptions struct {
	Client redis.UniversalClient
	Prefix string
	TTL    time.Duration
}

// NewClaimStore creates a Redis-backed claim store.
func NewClaimStore(opts ClaimStoreOptions) (*ClaimStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultClaimPrefix
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &ClaimStore{client: opts.Client, prefix: prefix, ttl: ttl, now: time.Now}, nil
}

// Claim returns true when this caller now owns key.
func (s *ClaimStore) Claim(ctx context.Context, key string) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, errors.New("claim key cannot be empty")
	}
	ok, err := s.client.SetNX(ctx, s.prefix+key, s.now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release deletes key. Releasing a missing key is not an error.
func (s *ClaimStore) Release(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
