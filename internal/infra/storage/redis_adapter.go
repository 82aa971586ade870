package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DioGolang/GoStock/internal/infra/event"
)

// saveIfNewer writes the hash only when no stored version is newer.
// KEYS[1] order key; ARGV: updated_at (unix nanos), status, total_cents.
var saveIfNewer = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], "updated_at")
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call("HSET", KEYS[1], "status", ARGV[2], "total_cents", ARGV[3], "updated_at", ARGV[1])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(c *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: c}
}

func (r *RedisAdapter) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}

func (r *RedisAdapter) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func OrderStatusKey(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

func (r *RedisAdapter) SaveOrderStatus(ctx context.Context, view event.OrderStatusView) (bool, error) {
	written, err := saveIfNewer.Run(ctx, r.client,
		[]string{OrderStatusKey(view.OrderID)},
		view.UpdatedAt.UnixNano(), view.Status, view.TotalCents,
	).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

var (
	_ event.RedisIdempotencyStore = (*RedisAdapter)(nil)
	_ event.OrderStatusStore      = (*RedisAdapter)(nil)
)
