package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

type RedisDenylist struct{ rdb *redis.Client }

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist { return &RedisDenylist{rdb} }

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return d.rdb.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
