package persistence

import (
	"context"
	"fmt"
	"strings"

	"tracker_worker/core/port/out"

	"github.com/redis/go-redis/v9"
)

// Redis hash keys.
const (
	LedgerHashKey    = "tracker:sr_created"
	OverridesHashKey = "tracker:recipients"
)

// RedisLedgerRepository implements out.LedgerRepository on a Redis hash.
// HSETNX makes the write-once rule hold across processes too.
type RedisLedgerRepository struct {
	client *redis.Client
	key    string
}

// NewRedisLedgerRepository creates a new RedisLedgerRepository.
func NewRedisLedgerRepository(client *redis.Client) *RedisLedgerRepository {
	return &RedisLedgerRepository{client: client, key: LedgerHashKey}
}

// LoadAll returns every recorded date.
func (r *RedisLedgerRepository) LoadAll(ctx context.Context) (map[string]string, error) {
	m, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return m, nil
}

// PutIfAbsent stores date for rowID unless an entry already exists.
func (r *RedisLedgerRepository) PutIfAbsent(ctx context.Context, rowID, date string) (bool, error) {
	ok, err := r.client.HSetNX(ctx, r.key, rowID, date).Result()
	if err != nil {
		return false, fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return ok, nil
}

// RedisOverrideRepository implements out.OverrideRepository on a Redis hash.
type RedisOverrideRepository struct {
	client *redis.Client
	key    string
}

// NewRedisOverrideRepository creates a new RedisOverrideRepository.
func NewRedisOverrideRepository(client *redis.Client) *RedisOverrideRepository {
	return &RedisOverrideRepository{client: client, key: OverridesHashKey}
}

// LoadAll returns every override.
func (r *RedisOverrideRepository) LoadAll(ctx context.Context) (map[string]string, error) {
	m, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	return m, nil
}

// Set adds or replaces the override for rowID.
func (r *RedisOverrideRepository) Set(ctx context.Context, rowID, address string) error {
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return ErrInvalidInput
	}
	if err := r.client.HSet(ctx, r.key, rowID, strings.TrimSpace(address)).Err(); err != nil {
		return fmt.Errorf("failed to set override: %w", err)
	}
	return nil
}

// Delete removes the override for rowID.
func (r *RedisOverrideRepository) Delete(ctx context.Context, rowID string) error {
	n, err := r.client.HDel(ctx, r.key, rowID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var (
	_ out.LedgerRepository   = (*RedisLedgerRepository)(nil)
	_ out.OverrideRepository = (*RedisOverrideRepository)(nil)
)
