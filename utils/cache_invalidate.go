package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// MarathonCachePattern matches every cached marathon listing response.
const MarathonCachePattern = "cache:marathons:*"

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

// PurgeMarathonLists drops cached listings after any marathon write. A nil
// invalidator is a no-op so routes work without Redis.
func (ci *CacheInvalidator) PurgeMarathonLists(ctx context.Context) error {
	if ci == nil || ci.rdb == nil {
		return nil
	}
	iter := ci.rdb.Scan(ctx, 0, MarathonCachePattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return ci.rdb.Del(ctx, keys...).Err()
}
