// Package reportcache keeps computed reports in Redis until activity on the
// activity queue makes them stale.
package reportcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"campusevents/internal/queue"
)

const keyPrefix = "reports:"

// Cache stores JSON-encoded report payloads. A nil Cache, or one with a zero
// TTL, passes every load straight through.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache over rdb.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Key names a cached report. scope is a college id or empty for all colleges.
func Key(scope, kind, query string) string {
	if scope == "" {
		scope = "all"
	}
	return keyPrefix + scope + ":" + kind + ":" + sha1Hex(query)
}

// Load returns the cached value under key, or computes it with fill and
// stores it. hit reports whether the value came from Redis. Redis failures
// are logged and treated as misses.
func Load[T any](ctx context.Context, c *Cache, key string, fill func(context.Context) (T, error)) (val T, hit bool, err error) {
	if !c.enabled() {
		val, err = fill(ctx)
		return val, false, err
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jerr := json.Unmarshal(raw, &val); jerr == nil {
			return val, true, nil
		}
		log.Printf("report cache: discard undecodable %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("report cache: get %s: %v", key, err)
	}

	val, err = fill(ctx)
	if err != nil {
		return val, false, err
	}
	if raw, err := json.Marshal(val); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("report cache: set %s: %v", key, err)
		}
	}
	return val, false, nil
}

// PurgeAll deletes every cached report and returns how many keys it removed.
func (c *Cache) PurgeAll(ctx context.Context) (int, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	var n int
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return n, err
		}
		n++
	}
	return n, iter.Err()
}

// Invalidate purges the cache for every message until msgs is closed or ctx
// is done. observe, when set, is called once per message with the purge result.
func (c *Cache) Invalidate(ctx context.Context, msgs <-chan queue.Message, observe func(queue.Message, error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			_, err := c.PurgeAll(ctx)
			if err != nil {
				log.Printf("report cache: purge after %s: %v", msg.Kind, err)
			}
			if observe != nil {
				observe(msg, err)
			}
		}
	}
}
