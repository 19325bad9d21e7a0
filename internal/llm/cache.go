package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ziadkadry99/foresight/internal/metrics"
)

const (
	cacheKeyPrefix  = "foresight:llm:"
	DefaultCacheTTL = 24 * time.Hour
)

// Cache stores serialized completion responses by key.
type Cache interface {
	// Get reports ok=false on a miss; err is reserved for backend failures.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at url (redis://host:port/db)
// and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, cacheKeyPrefix+key, value, ttl).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedProvider serves identical completion requests from a Cache.
// Cache failures are logged and fall through to the wrapped provider.
type CachedProvider struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewCachedProvider wraps provider with cache. A zero ttl uses DefaultCacheTTL.
func NewCachedProvider(provider Provider, cache Cache, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{provider: provider, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

func (p *CachedProvider) Name() string {
	return p.provider.Name()
}

func (p *CachedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	key, err := cacheKey(p.provider.Name(), req)
	if err != nil {
		return nil, err
	}

	data, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("llm cache lookup failed", "error", err)
	}
	if ok {
		var resp CompletionResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			p.metrics.IncCacheLookup(true)
			resp.Cached = true
			return &resp, nil
		}
		p.logger.Warn("discarding corrupt llm cache entry", "key", key)
	}
	p.metrics.IncCacheLookup(false)

	resp, err := p.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Content == "" {
		return resp, nil
	}

	data, err = json.Marshal(resp)
	if err == nil {
		err = p.cache.Set(ctx, key, data, p.ttl)
	}
	if err != nil {
		p.logger.Warn("llm cache store failed", "error", err)
	}
	return resp, nil
}

func cacheKey(provider string, req CompletionRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("hashing request: %w", err)
	}
	sum := sha256.Sum256(append([]byte(provider+"\x00"), data...))
	return hex.EncodeToString(sum[:]), nil
}
