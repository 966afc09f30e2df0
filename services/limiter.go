package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SendLimiter answers whether an actor may send another message right now.
// The subscription/usage internals live elsewhere; the engine only consumes
// the yes/no.
type SendLimiter interface {
	Allow(ctx context.Context, actor uint) (bool, error)
}

// RedisSendLimiter counts sends per actor per calendar day on a redis
// counter with a day's expiry.
type RedisSendLimiter struct {
	Client *redis.Client
	PerDay int64
}

func NewRedisSendLimiter(client *redis.Client, perDay int64) *RedisSendLimiter {
	if perDay <= 0 {
		perDay = 100
	}
	return &RedisSendLimiter{Client: client, PerDay: perDay}
}

func (l *RedisSendLimiter) Allow(ctx context.Context, actor uint) (bool, error) {
	key := quotaKey(actor, time.Now())
	count, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		l.Client.Expire(ctx, key, 24*time.Hour)
	}
	return count <= l.PerDay, nil
}

func quotaKey(actor uint, now time.Time) string {
	return fmt.Sprintf("msgquota:user:%d:%s", actor, now.Format("2006-01-02"))
}
