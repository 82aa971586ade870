package event

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

type RedisIdempotencyStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// dedupKey scopes the event id to the handler so two projections of the same
// event do not shadow each other. Events without an id fall back to a hash of
// the body.
func dedupKey(handlerName string, msg []byte, headers map[string]interface{}) string {
	if v, ok := headers["x-event-id"]; ok {
		if id := fmt.Sprint(v); id != "" {
			return "dedup:" + handlerName + ":" + id
		}
	}
	sum := sha256.Sum256(msg)
	return "dedup:" + handlerName + ":hash:" + hex.EncodeToString(sum[:])
}

// WrapIdempotency lets each event through next at most once per ttl. The key
// is taken before next runs and given back when next fails with a retryable
// error; poison messages keep it.
func WrapIdempotency(
	log logger.Logger,
	m metrics.Metrics,
	store RedisIdempotencyStore,
	handlerName string,
	ttl time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) error {
		key := dedupKey(handlerName, msg, headers)

		fresh, err := store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl)
		if err != nil {
			log.Error(ctx, "Idempotency store unavailable",
				logger.String("handler", handlerName),
				logger.WithError(err))
			return fmt.Errorf("idempotency store unavailable: %w", err)
		}
		if !fresh {
			m.IncConsumerMessages(handlerName, "duplicate")
			log.Info(ctx, "Duplicate event skipped", logger.String("key", key))
			return nil
		}

		err = next(ctx, msg, headers)
		if err == nil || errors.Is(err, ErrPoisonMessage) {
			return err
		}

		if delErr := store.Del(context.WithoutCancel(ctx), key); delErr != nil {
			log.Error(ctx, "Failed to release idempotency key",
				logger.String("key", key),
				logger.WithError(delErr))
		}
		return err
	}
}
