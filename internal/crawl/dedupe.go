package crawl

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"hyperfind/internal/apperr"
)

// urlDedupeTTL bounds how long a crawled URL is remembered across jobs,
// letting a fresh crawl re-visit a page after it may have changed.
const urlDedupeTTL = 24 * time.Hour

// URLDedupe remembers recently-seen URLs across crawl jobs so a distributed
// set of crawl workers doesn't reinsert the same page twice between the
// time one worker inserts a Document and another worker's GetByURL lookup
// would otherwise catch it.
type URLDedupe interface {
	// Seen reports whether url was marked within the dedupe TTL, then marks
	// it (a single round trip doing check-and-set).
	Seen(ctx context.Context, url string) (bool, error)
}

// RedisURLDedupe is a Redis-backed URLDedupe using SETNX for an atomic
// check-and-mark.
type RedisURLDedupe struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisURLDedupe builds a RedisURLDedupe over an existing client. ttl of
// zero selects urlDedupeTTL.
func NewRedisURLDedupe(client *redis.Client, ttl time.Duration) *RedisURLDedupe {
	if ttl <= 0 {
		ttl = urlDedupeTTL
	}
	return &RedisURLDedupe{client: client, ttl: ttl}
}

func (d *RedisURLDedupe) Seen(ctx context.Context, url string) (bool, error) {
	ok, err := d.client.SetNX(ctx, "crawl:seen:"+url, "1", d.ttl).Result()
	if err != nil {
		return false, apperr.New(apperr.PersistenceFailure, "crawl.RedisURLDedupe.Seen", err)
	}
	// SetNX returns true when the key was newly set, i.e. the URL was not
	// previously seen.
	return !ok, nil
}
