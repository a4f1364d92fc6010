package langcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lingualoop/learning-api/internal/language"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces the cache keys.
const KeyPrefix = "langpref:"

const scanBatch = 100

// RedisClient is the subset of *redis.Client used by Redis.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Redis is a cache shared by every Lambda instance, so an invalidation
// issued by one instance (or by langctl) is seen by all of them.
// Redis errors are logged and treated as misses.
type Redis struct {
	client RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis wraps client. A zero ttl stores keys without expiry.
func NewRedis(client RedisClient, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Key returns the cache key of userID.
func Key(userID string) string {
	return KeyPrefix + userID
}

// Get returns the pair of userID.
func (r *Redis) Get(ctx context.Context, userID string) (language.Pair, bool) {
	data, err := r.client.Get(ctx, Key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return language.Pair{}, false
	}
	if err != nil {
		r.logger.Warn("language cache read failed", zap.String("user_id", userID), zap.Error(err))
		return language.Pair{}, false
	}

	var pair language.Pair
	if err := json.Unmarshal([]byte(data), &pair); err != nil {
		r.logger.Warn("language cache entry is corrupt", zap.String("user_id", userID), zap.Error(err))
		return language.Pair{}, false
	}
	return pair, true
}

// Set stores pair for userID.
func (r *Redis) Set(ctx context.Context, userID string, pair language.Pair) {
	data, err := json.Marshal(pair)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, Key(userID), data, r.ttl).Err(); err != nil {
		r.logger.Warn("language cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Invalidate removes userID.
func (r *Redis) Invalidate(ctx context.Context, userID string) {
	if _, err := r.Delete(ctx, userID); err != nil {
		r.logger.Warn("language cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Delete removes userID and reports how many keys were deleted.
func (r *Redis) Delete(ctx context.Context, userID string) (int64, error) {
	return r.client.Del(ctx, Key(userID)).Result()
}

// InvalidateAll removes every key under KeyPrefix.
func (r *Redis) InvalidateAll(ctx context.Context) {
	if _, err := r.Purge(ctx); err != nil {
		r.logger.Warn("language cache purge failed", zap.Error(err))
	}
}

// Purge removes every key under KeyPrefix and returns how many were deleted.
func (r *Redis) Purge(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
