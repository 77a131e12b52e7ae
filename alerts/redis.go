package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLog is a DeliveryLog backed by Redis. Each key lives a little over
// a day, so the log never needs pruning.
type RedisLog struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisLog creates a RedisLog with keys under "alerts:sent:".
func NewRedisLog(client redis.UniversalClient) *RedisLog {
	return &RedisLog{client: client, prefix: "alerts:sent:", ttl: 36 * time.Hour}
}

func (l *RedisLog) key(k Key) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", l.prefix, k.Day, k.Type, k.UserID, k.ReferenceID)
}

func (l *RedisLog) WasSent(ctx context.Context, k Key) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(k)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLog) RecordSent(ctx context.Context, k Key) error {
	if err := l.client.Set(ctx, l.key(k), time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
