// Package cache keeps aggregate probe scores in redis so repeated runs do
// not re-query the reputation backends for addresses scored recently.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"cidrscout/internal/domain"
	"cidrscout/internal/support"
)

const keyPrefix = "cidrscout:probe:"

var (
	clientMu sync.Mutex
	client   *redis.Client
)

// Connect returns the shared redis client, dialing on first use. The URL
// comes from REDIS_URL and defaults to a local instance.
func Connect() (*redis.Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client != nil {
		return client, nil
	}

	redisURL := support.GetEnv("REDIS_URL", "redis://localhost:6379")
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url %q: %w", redisURL, err)
	}

	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("cache: connect redis: %w", err)
	}

	client = c
	return client, nil
}

// Close releases the shared client. Safe to call when Connect never ran.
func Close() error {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client == nil {
		return nil
	}

	err := client.Close()
	client = nil
	return err
}

// Prober matches the selector's prober dependency.
type Prober interface {
	Probe(ctx context.Context, ip string) domain.AggregateScore
}

// scoreStore is the slice of the redis command surface the cache needs.
// Tests substitute a fake.
type scoreStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachingProber wraps another prober with a redis-backed score cache. Cache
// failures degrade to a plain probe; they are never surfaced.
type CachingProber struct {
	inner Prober
	store scoreStore
	ttl   time.Duration
}

func NewCachingProber(inner Prober, client *redis.Client, ttl time.Duration) *CachingProber {
	return &CachingProber{inner: inner, store: client, ttl: ttl}
}

func (c *CachingProber) Probe(ctx context.Context, ip string) domain.AggregateScore {
	key := keyPrefix + ip

	if cached, err := c.store.Get(ctx, key).Bytes(); err == nil {
		var score domain.AggregateScore
		if err := json.Unmarshal(cached, &score); err == nil {
			log.Debug("Probe cache hit", "ip", ip, "score", score.Value)
			return score
		}
	} else if err != redis.Nil {
		log.Debug("Probe cache read failed", "ip", ip, "error", err)
	}

	score := c.inner.Probe(ctx, ip)

	if payload, err := json.Marshal(score); err == nil {
		if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Debug("Probe cache write failed", "ip", ip, "error", err)
		}
	}

	return score
}
