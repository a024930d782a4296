// Package cache implements the result cache (C14): a Redis-backed TTL cache
// for search responses, keyed by query type and C4's cache-key fingerprint,
// grounded on the teacher's internal/orchestrator/dedupe.go RedisDedupeStore
// (Get/Set over a redis.Client with a TTL), generalized from a plain string
// value to a JSON-marshaled response payload.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hyperfind/internal/apperr"
)

// DefaultTTL is the result cache's default entry lifetime.
const DefaultTTL = 300 * time.Second

// ResultCache caches search response payloads by (type, cacheKey, page,
// pageSize). Only non-empty responses are ever stored; callers decide
// emptiness via Set's total parameter.
type ResultCache interface {
	// Get looks up the cached payload for the given key, unmarshaling it
	// into dest. ok is false on a miss; a cache error never prevents a
	// fresh lookup (callers should log and proceed).
	Get(ctx context.Context, key Key, dest any) (ok bool, err error)
	// Set stores payload under key with DefaultTTL, but only when total > 0;
	// an empty result set is never cached.
	Set(ctx context.Context, key Key, total int, payload any) error
}

// Key identifies one cached search response.
type Key struct {
	Type     string // "bm25" | "semantic" | "fulltext" | "hybrid"
	CacheKey string // from queryproc.Processed.CacheKey
	Page     int
	PageSize int
}

// String renders key as "search:{type}:{cacheKey}:p{page}:s{size}".
func (k Key) String() string {
	return fmt.Sprintf("search:%s:%s:p%d:s%d", k.Type, k.CacheKey, k.Page, k.PageSize)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis builds a Redis-backed ResultCache using an existing client. ttl
// of zero selects DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, key Key, dest any) (bool, error) {
	val, err := c.client.Get(ctx, key.String()).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, apperr.New(apperr.PersistenceFailure, "cache.Get", err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, apperr.New(apperr.PersistenceFailure, "cache.Get", err)
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key Key, total int, payload any) error {
	if total <= 0 {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.New(apperr.PersistenceFailure, "cache.Set", err)
	}
	if err := c.client.Set(ctx, key.String(), body, c.ttl).Err(); err != nil {
		return apperr.New(apperr.PersistenceFailure, "cache.Set", err)
	}
	return nil
}

// memoryCache is an in-process ResultCache for tests and single-node
// development, mirroring redisCache's emptiness/TTL rules without a Redis
// dependency.
type memoryCache struct {
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	body      []byte
	expiresAt time.Time
}

// NewMemory builds an in-memory ResultCache. ttl of zero selects
// DefaultTTL.
func NewMemory(ttl time.Duration) ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Get(_ context.Context, key Key, dest any) (bool, error) {
	e, ok := c.entries[key.String()]
	if !ok {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key.String())
		return false, nil
	}
	if err := json.Unmarshal(e.body, dest); err != nil {
		return false, apperr.New(apperr.PersistenceFailure, "cache.Get", err)
	}
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key Key, total int, payload any) error {
	if total <= 0 {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.New(apperr.PersistenceFailure, "cache.Set", err)
	}
	c.entries[key.String()] = memoryEntry{body: body, expiresAt: time.Now().Add(c.ttl)}
	return nil
}
