package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Nil is returned by reads of a missing key
const Nil = redis.Nil

// Cache key constants
const (
	KeyTeamState = "sprint:team:%s:state" // Cached team aggregate
	KeyTeamLock  = "sprint:team:%s:lock"  // Single writer per team
	KeyUserFeed  = "notify:user:%s:feed"  // Latest notifications, newest first
)

// TTL constants
const (
	TTLTeamState = 10 * time.Minute
	TTLUserFeed  = 24 * time.Hour
)

// releaseScript deletes a lock only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient creates a new Redis client
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

func (c *Client) observe(op, key string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("key_prefix", prefixForLog(key)), zap.Duration("duration", time.Since(start)))
	if err != nil && err != redis.Nil {
		c.log.Info(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug(op, fields...)
}

// Get retrieves a value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.observe("redis_get", key, start, err)
	return val, err
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.observe("redis_set", key, start, err)
	return err
}

// SetNX sets a value only if it doesn't exist
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	c.observe("redis_setnx", key, start, err, zap.Bool("result", ok))
	return ok, err
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.log.Debug("redis_del",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// AcquireLock takes key for token if nobody holds it
func (c *Client) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, key, token, ttl)
}

// ReleaseLock drops key if it is still held by token. It reports whether the
// lock was released; false means it expired and may now belong to someone else.
func (c *Client) ReleaseLock(ctx context.Context, key, token string) (bool, error) {
	start := time.Now()
	n, err := releaseScript.Run(ctx, c.rdb, []string{key}, token).Int64()
	c.observe("redis_release_lock", key, start, err, zap.Int64("result", n))
	return n == 1, err
}

// PushCapped prepends values to a list and trims it to max entries
func (c *Client) PushCapped(ctx context.Context, key string, max int64, ttl time.Duration, values ...interface{}) error {
	if len(values) == 0 {
		return nil
	}
	start := time.Now()
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, values...)
		pipe.LTrim(ctx, key, 0, max-1)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	c.observe("redis_push_capped", key, start, err, zap.Int("values", len(values)))
	return err
}

// LRange returns list entries between start and stop inclusive
func (c *Client) LRange(ctx context.Context, key string, begin, stop int64) ([]string, error) {
	start := time.Now()
	vals, err := c.rdb.LRange(ctx, key, begin, stop).Result()
	c.observe("redis_lrange", key, start, err, zap.Int("values", len(vals)))
	return vals, err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_ping", zap.Duration("duration", dur), zap.Error(err))
	} else {
		c.log.Debug("redis_ping", zap.Duration("duration", dur))
	}
	return err
}

// prefixForLog returns a safe prefix of a key to avoid logging PII
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
