package order

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/pkg/events"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

type CancelUseCaseImpl struct {
	NewUnitOfWork outbound.UnitOfWorkFactory
	Logger        logger.Logger
	Metrics       metrics.Metrics
	Retry         transaction.RetryPolicy
	Now           func() time.Time
}

func NewCancelOrderUseCase(
	factory outbound.UnitOfWorkFactory,
	log logger.Logger,
	m metrics.Metrics,
	retry transaction.RetryPolicy,
) *CancelUseCaseImpl {
	return &CancelUseCaseImpl{
		NewUnitOfWork: factory,
		Logger:        log,
		Metrics:       m,
		Retry:         retry,
		Now:           time.Now,
	}
}

func (uc *CancelUseCaseImpl) Execute(ctx context.Context, input CancelInput) error {
	ctx, span := tracer.Start(ctx, cancelOrderName)
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", input.OrderID))

	uow := uc.NewUnitOfWork()
	defer transaction.Release(ctx, uow, uc.Logger)

	var previous string
	err := transaction.RunWithRetry(ctx, uc.Logger, uc.Metrics, cancelOrderName, uc.Retry, func(ctx context.Context) error {
		status, err := uc.cancel(ctx, uow, input.OrderID)
		if err != nil {
			return err
		}
		previous = status
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	uc.Metrics.RecordOrderCancelled(previous)
	uc.Logger.Info(ctx, "Order cancelled",
		logger.Int64("order_id", input.OrderID),
		logger.String("previous_status", previous),
	)
	return nil
}

// cancel runs one attempt and reports the status the order had before.
func (uc *CancelUseCaseImpl) cancel(ctx context.Context, uow outbound.UnitOfWork, orderID int64) (string, error) {
	if err := uow.BeginTransaction(ctx); err != nil {
		return "", err
	}
	fail := func(err error) (string, error) {
		return "", transaction.Abort(ctx, uow, uc.Logger, err)
	}

	order, err := uow.Orders().GetByID(ctx, orderID)
	if err != nil {
		return fail(notFound(err, ErrOrderNotFound, orderID))
	}
	items, err := uow.OrderItems().Find(ctx, outbound.Criteria{"order_id": orderID})
	if err != nil {
		return fail(err)
	}
	order.AttachItems(items)

	previous := order.StatusName()
	if err := order.Cancel(); err != nil {
		return fail(err)
	}

	for _, item := range items {
		product, err := uow.Products().GetByID(ctx, item.ProductID())
		if err != nil {
			return fail(notFound(err, ErrProductNotFound, item.ProductID()))
		}
		if err := product.IncreaseStock(item.Quantity()); err != nil {
			return fail(err)
		}
		if err := uow.Products().Update(ctx, product); err != nil {
			return fail(err)
		}
	}

	if err := uow.Orders().Update(ctx, order); err != nil {
		return fail(err)
	}
	msg, err := newOutboxMessage(ctx, order, events.TypeOrderCancelled, events.TopicOrderCancelled, uc.Now())
	if err != nil {
		return fail(err)
	}
	if _, err := uow.Outbox().Add(ctx, msg); err != nil {
		return fail(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return "", err
	}
	return previous, nil
}
