package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tieba-server/services/messaging-api/internal/domain/unread"
)

// UnreadCache keeps the unread totals of a user for a short TTL. Redis
// failures degrade to misses.
type UnreadCache struct {
	redis *RedisCache
	ttl   time.Duration
}

var _ unread.Cache = (*UnreadCache)(nil)

func NewUnreadCache(r *RedisCache, ttl time.Duration) *UnreadCache {
	return &UnreadCache{redis: r, ttl: ttl}
}

// generationTTL outlives any totals computation by a wide margin; an expired
// generation only causes a skipped write.
const generationTTL = 24 * time.Hour

// The hash tag keeps both keys of a user in one cluster slot for the script.
func unreadKey(userID uint) string {
	return keyPrefix + "unread:{" + strconv.FormatUint(uint64(userID), 10) + "}"
}

func generationKey(userID uint) string {
	return keyPrefix + "unread-gen:{" + strconv.FormatUint(uint64(userID), 10) + "}"
}

// setIfGeneration: KEYS[1]=generation, KEYS[2]=totals, ARGV=generation, payload, ttl ms.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *UnreadCache) Get(ctx context.Context, userID uint) (*unread.Totals, bool) {
	raw, err := c.redis.client.Get(ctx, unreadKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.redis.log.Warn().Err(err).Uint("user_id", userID).Msg("unread cache read failed")
		}
		return nil, false
	}
	var totals unread.Totals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, false
	}
	return &totals, true
}

func (c *UnreadCache) Generation(ctx context.Context, userID uint) (int64, bool) {
	gen, err := c.redis.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.redis.log.Warn().Err(err).Uint("user_id", userID).Msg("unread generation read failed")
		return 0, false
	}
	return gen, true
}

func (c *UnreadCache) Set(ctx context.Context, userID uint, generation int64, totals unread.Totals) {
	raw, err := json.Marshal(totals)
	if err != nil {
		return
	}
	keys := []string{generationKey(userID), unreadKey(userID)}
	written, err := setIfGeneration.Run(ctx, c.redis.client, keys, strconv.FormatInt(generation, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.redis.log.Warn().Err(err).Uint("user_id", userID).Msg("unread cache write failed")
		return
	}
	if written == 0 {
		c.redis.log.Debug().Uint("user_id", userID).Msg("unread totals invalidated during computation, not cached")
	}
}

func (c *UnreadCache) Invalidate(ctx context.Context, userIDs ...uint) {
	if len(userIDs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	_, err := c.redis.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Expire(ctx, generationKey(id), generationTTL)
			pipe.Unlink(ctx, unreadKey(id))
		}
		return nil
	})
	if err != nil {
		c.redis.log.Warn().Err(err).Int("users", len(userIDs)).Msg("unread cache invalidation failed")
	}
}

// NoopUnreadCache is used when Redis is not configured.
type NoopUnreadCache struct{}

func (NoopUnreadCache) Get(context.Context, uint) (*unread.Totals, bool) { return nil, false }
func (NoopUnreadCache) Generation(context.Context, uint) (int64, bool) { return 0, false }
func (NoopUnreadCache) Set(context.Context, uint, int64, unread.Totals) {}
func (NoopUnreadCache) Invalidate(context.Context, ...uint) {}
