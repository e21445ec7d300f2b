package anubis

import (
	"context"
	"errors"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/user"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/cache"
)

const redisKeyPrefix = "kickoff:principal:"

// PrincipalCache stores verified principals keyed by token hash.
type PrincipalCache interface {
	Get(ctx context.Context, key string) (user.Principal, bool, error)
	Set(ctx context.Context, key string, principal user.Principal) error
}

type memoryPrincipalCache struct {
	store *cache.Store
}

func NewMemoryPrincipalCache(ttl time.Duration, maxEntries int) PrincipalCache {
	return &memoryPrincipalCache{store: cache.NewStore(ttl, maxEntries)}
}

func (c *memoryPrincipalCache) Get(ctx context.Context, key string) (user.Principal, bool, error) {
	value, ok := c.store.Get(ctx, key)
	if !ok {
		return user.Principal{}, false, nil
	}
	principal, ok := value.(user.Principal)
	return principal, ok, nil
}

func (c *memoryPrincipalCache) Set(ctx context.Context, key string, principal user.Principal) error {
	c.store.Set(ctx, key, principal)
	return nil
}

// RedisPrincipalCache shares verified principals between replicas.
type RedisPrincipalCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisPrincipalCache(client *redis.Client, ttl time.Duration) *RedisPrincipalCache {
	return &RedisPrincipalCache{redis: client, ttl: ttl}
}

type principalRecord struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

func (c *RedisPrincipalCache) Get(ctx context.Context, key string) (user.Principal, bool, error) {
	data, err := c.redis.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return user.Principal{}, false, nil
		}
		return user.Principal{}, false, fmt.Errorf("redis get principal: %w", err)
	}

	principal, err := decodePrincipal(data)
	if err != nil {
		return user.Principal{}, false, err
	}
	return principal, true, nil
}

func (c *RedisPrincipalCache) Set(ctx context.Context, key string, principal user.Principal) error {
	if c.ttl <= 0 {
		return nil
	}

	data, err := encodePrincipal(principal)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set principal: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

func encodePrincipal(principal user.Principal) ([]byte, error) {
	data, err := sonic.Marshal(principalRecord{UserID: principal.UserID, Email: principal.Email})
	if err != nil {
		return nil, fmt.Errorf("marshal principal for cache: %w", err)
	}
	return data, nil
}

func decodePrincipal(data []byte) (user.Principal, error) {
	var record principalRecord
	if err := sonic.Unmarshal(data, &record); err != nil {
		return user.Principal{}, fmt.Errorf("unmarshal cached principal: %w", err)
	}
	if record.UserID == "" {
		return user.Principal{}, fmt.Errorf("cached principal has empty user id")
	}
	return user.Principal{UserID: record.UserID, Email: record.Email}, nil
}
