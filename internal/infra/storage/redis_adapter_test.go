package storage

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/DioGolang/GoStock/internal/infra/event"
)

func TestOrderStatusKey(t *testing.T) {
	assert.Equal(t, "order:42", OrderStatusKey(42))
}

func TestRedisAdapter_ReportsUnavailableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	adapter := NewRedisAdapter(client)
	ctx := context.Background()

	_, err := adapter.SetNX(ctx, "dedup:test:1", "processing", time.Minute)
	assert.Error(t, err)

	written, err := adapter.SaveOrderStatus(ctx, event.OrderStatusView{OrderID: 1, Status: "CONFIRMED", UpdatedAt: time.Now()})
	assert.Error(t, err)
	assert.False(t, written)
}
