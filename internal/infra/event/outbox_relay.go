package event

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/pkg/events"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
	tracing "github.com/DioGolang/GoStock/pkg/otel"
)

const (
	stuckAfter      = 5 * time.Minute
	retainPublished = 7 * 24 * time.Hour
)

type RelayConfig struct {
	BatchSize   int
	Workers     int
	MaxAttempts int
	Interval    time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{BatchSize: 100, Workers: 10, MaxAttempts: 5, Interval: 100 * time.Millisecond}
}

// OutboxRelay publishes committed outbox rows. Rows are claimed in one short
// transaction, published outside of it and then marked one by one.
type OutboxRelay struct {
	newUnitOfWork outbound.UnitOfWorkFactory
	publisher     events.Publisher
	logger        logger.Logger
	metrics       metrics.Metrics
	cfg           RelayConfig
	now           func() time.Time
}

func NewOutboxRelay(
	factory outbound.UnitOfWorkFactory,
	pub events.Publisher,
	log logger.Logger,
	m metrics.Metrics,
	cfg RelayConfig,
) *OutboxRelay {
	return &OutboxRelay{
		newUnitOfWork: factory,
		publisher:     pub,
		logger:        log,
		metrics:       m,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch claims and publishes at most one batch. It returns how many
// rows were claimed.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) int {
	claimed, err := r.fetchAndClaim(ctx)
	if err != nil {
		if !errors.Is(err, outbound.ErrConcurrencyConflict) {
			r.logger.Error(ctx, "Failed to claim outbox batch", logger.WithError(err))
		}
		return 0
	}
	if len(claimed) == 0 {
		return 0
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Workers, 1))
	for _, msg := range claimed {
		g.Go(func() error {
			return r.processSingleEvent(gCtx, msg)
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error(ctx, "Batch processing had errors", logger.WithError(err))
	}
	return len(claimed)
}

func (r *OutboxRelay) fetchAndClaim(ctx context.Context) ([]outbound.OutboxMessage, error) {
	uow := r.newUnitOfWork()
	defer func() { _ = uow.Close(ctx) }()

	var claimed []outbound.OutboxMessage
	err := uow.Do(ctx, func(repos outbound.RepositoryProvider) error {
		pending, err := repos.Outbox().Find(ctx, outbound.Criteria{"status": outbound.OutboxPending})
		if err != nil {
			return err
		}
		if len(pending) > r.cfg.BatchSize {
			pending = pending[:r.cfg.BatchSize]
		}

		now := r.now().UTC()
		for _, msg := range pending {
			msg.Status = outbound.OutboxProcessing
			msg.UpdatedAt = now
			if err := repos.Outbox().Update(ctx, msg); err != nil {
				return err
			}
			claimed = append(claimed, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *OutboxRelay) processSingleEvent(ctx context.Context, msg outbound.OutboxMessage) error {
	// continue the trace of the request that wrote the row
	pubCtx := tracing.ContextWithTraceContext(ctx, msg.TraceContext)
	pubCtx, cancel := context.WithTimeout(pubCtx, 5*time.Second)
	defer cancel()

	headers := map[string]string{
		"x-event-version": strconv.FormatInt(int64(msg.EventVersion), 10),
		"x-event-id":      msg.EventID,
		"x-event-type":    msg.EventType,
		"x-aggregate-id":  strconv.FormatInt(msg.AggregateID, 10),
	}
	pubErr := r.publisher.Publish(pubCtx, msg.Topic, msg.Payload, headers)

	// the outcome must be recorded even if the relay is shutting down
	markCtx := context.WithoutCancel(ctx)
	if pubErr != nil {
		r.logger.Warn(ctx, "Failed to publish event",
			logger.String("event_id", msg.EventID),
			logger.Int("attempt", msg.Attempts+1),
			logger.WithError(pubErr))
		return r.markFailed(markCtx, msg, pubErr)
	}
	return r.markPublished(markCtx, msg)
}

func (r *OutboxRelay) markPublished(ctx context.Context, msg outbound.OutboxMessage) error {
	err := r.update(ctx, msg.ID, func(m *outbound.OutboxMessage) {
		m.Status = outbound.OutboxPublished
		m.LastError = ""
	})
	if err == nil {
		r.metrics.IncOutboxEventsProcessed("published")
	}
	return err
}

// markFailed returns the row to PENDING until it has used up MaxAttempts.
func (r *OutboxRelay) markFailed(ctx context.Context, msg outbound.OutboxMessage, cause error) error {
	status := "retry"
	err := r.update(ctx, msg.ID, func(m *outbound.OutboxMessage) {
		m.Attempts++
		m.LastError = cause.Error()
		m.Status = outbound.OutboxPending
		if m.Attempts >= r.cfg.MaxAttempts {
			m.Status = outbound.OutboxFailed
			status = "failed"
		}
	})
	if err == nil {
		r.metrics.IncOutboxEventsProcessed(status)
	}
	return err
}

func (r *OutboxRelay) update(ctx context.Context, id int64, mutate func(*outbound.OutboxMessage)) error {
	uow := r.newUnitOfWork()
	defer func() { _ = uow.Close(ctx) }()

	return uow.Do(ctx, func(repos outbound.RepositoryProvider) error {
		m, err := repos.Outbox().GetByID(ctx, id)
		if err != nil {
			return err
		}
		mutate(&m)
		m.UpdatedAt = r.now().UTC()
		return repos.Outbox().Update(ctx, m)
	})
}

func (r *OutboxRelay) RunRescuer(ctx context.Context) {
	ticker := time.NewTicker(stuckAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Rescue(ctx); err != nil {
				r.logger.Error(ctx, "Outbox rescue failed", logger.WithError(err))
			}
		}
	}
}

// Rescue returns rows stuck in PROCESSING to PENDING and purges rows
// published longer ago than the retention window.
func (r *OutboxRelay) Rescue(ctx context.Context) error {
	uow := r.newUnitOfWork()
	defer func() { _ = uow.Close(ctx) }()

	now := r.now().UTC()
	var reset, purged int
	err := uow.Do(ctx, func(repos outbound.RepositoryProvider) error {
		processing, err := repos.Outbox().Find(ctx, outbound.Criteria{"status": outbound.OutboxProcessing})
		if err != nil {
			return err
		}
		for _, m := range processing {
			if now.Sub(m.UpdatedAt) < stuckAfter {
				continue
			}
			m.Status = outbound.OutboxPending
			m.UpdatedAt = now
			if err := repos.Outbox().Update(ctx, m); err != nil {
				return err
			}
			reset++
		}

		published, err := repos.Outbox().Find(ctx, outbound.Criteria{"status": outbound.OutboxPublished})
		if err != nil {
			return err
		}
		for _, m := range published {
			if now.Sub(m.UpdatedAt) < retainPublished {
				continue
			}
			if err := repos.Outbox().Delete(ctx, m.ID); err != nil {
				return err
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if reset > 0 || purged > 0 {
		r.logger.Info(ctx, "Outbox rescued",
			logger.Int("reset", reset),
			logger.Int("purged", purged),
		)
	}
	return nil
}
