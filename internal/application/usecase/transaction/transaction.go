package transaction

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

// RetryPolicy bounds how often a unit of work is replayed after losing a
// write-write race.
type RetryPolicy struct {
	Attempts int
	BaseWait time.Duration
	MaxWait  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, BaseWait: 10 * time.Millisecond, MaxWait: 500 * time.Millisecond}
}

func (p RetryPolicy) wait(attempt int) time.Duration {
	wait := p.BaseWait * time.Duration(math.Pow(2, float64(attempt)))
	if p.MaxWait > 0 && wait > p.MaxWait {
		return p.MaxWait
	}
	return wait
}

// RunWithRetry runs fn and replays it with exponential backoff while it
// fails with outbound.ErrConcurrencyConflict. fn must start and finish its
// own transaction, so every replay re-reads committed state.
func RunWithRetry(
	ctx context.Context,
	log logger.Logger,
	m metrics.Metrics,
	useCaseName string,
	policy RetryPolicy,
	fn func(ctx context.Context) error,
) error {
	attempts := max(policy.Attempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, outbound.ErrConcurrencyConflict) {
			return err
		}
		m.IncConcurrencyConflict(useCaseName)
		if attempt == attempts-1 {
			break
		}

		wait := policy.wait(attempt)
		log.Warn(ctx, "Concurrent modification, retrying transaction",
			logger.String("use_case", useCaseName),
			logger.Int("attempt", attempt+1),
			logger.Duration("wait", wait),
			logger.WithError(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	log.Error(ctx, "Max transaction retries reached",
		logger.String("use_case", useCaseName),
		logger.Int("attempts", attempts),
		logger.WithError(err),
	)
	return err
}

// Abort rolls back the open transaction and returns cause. A failed rollback
// is logged, never returned, so the caller always sees what went wrong first.
func Abort(ctx context.Context, uow outbound.UnitOfWork, log logger.Logger, cause error) error {
	if err := uow.Rollback(ctx); err != nil {
		log.Error(ctx, "Rollback failed",
			logger.WithError(err),
			logger.String("cause", cause.Error()),
		)
	}
	return cause
}

// Release closes uow, logging instead of returning the error. Meant for defer.
func Release(ctx context.Context, uow outbound.UnitOfWork, log logger.Logger) {
	if err := uow.Close(ctx); err != nil {
		log.Warn(ctx, "Failed to release unit of work", logger.WithError(err))
	}
}
