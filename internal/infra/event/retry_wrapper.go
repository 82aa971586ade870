package event

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

// backoff doubles base per attempt, capped at one minute, with up to 20%
// jitter so replicas do not retry in lockstep.
func backoff(base time.Duration, attempt int) time.Duration {
	wait := base << min(attempt, 30)
	if wait <= 0 || wait > time.Minute {
		wait = time.Minute
	}
	return wait + time.Duration(rand.Int64N(int64(wait)/5+1))
}

// WrapExponentialBackoff retries next in-process up to maxRetries times.
// Poison messages and context cancellation end the loop immediately.
func WrapExponentialBackoff(
	log logger.Logger,
	m metrics.Metrics,
	handlerName string,
	maxRetries int,
	baseWait time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) error {
		err := next(ctx, msg, headers)
		for attempt := 0; err != nil && attempt < maxRetries; attempt++ {
			if errors.Is(err, ErrPoisonMessage) {
				return err
			}

			wait := backoff(baseWait, attempt)
			log.Warn(ctx, "Handler failed, backing off",
				logger.String("handler", handlerName),
				logger.Int("retry", attempt+1),
				logger.Duration("wait", wait),
				logger.WithError(err))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			err = next(ctx, msg, headers)
		}

		if err != nil && !errors.Is(err, ErrPoisonMessage) {
			log.Error(ctx, "Retries exhausted",
				logger.String("handler", handlerName),
				logger.Int("retries", maxRetries),
				logger.WithError(err))
			m.IncConsumerMessages(handlerName, "retries_exhausted")
		}
		return err
	}
}
