package order

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/events"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

var tracer = otel.Tracer("gostock/usecase/order")

type CreateUseCaseImpl struct {
	NewUnitOfWork outbound.UnitOfWorkFactory
	Logger        logger.Logger
	Metrics       metrics.Metrics
	Retry         transaction.RetryPolicy
	Now           func() time.Time
}

func NewCreateOrderUseCase(
	factory outbound.UnitOfWorkFactory,
	log logger.Logger,
	m metrics.Metrics,
	retry transaction.RetryPolicy,
) *CreateUseCaseImpl {
	return &CreateUseCaseImpl{
		NewUnitOfWork: factory,
		Logger:        log,
		Metrics:       m,
		Retry:         retry,
		Now:           time.Now,
	}
}

func (uc *CreateUseCaseImpl) Execute(ctx context.Context, input CreateInput) (CreateOutput, error) {
	ctx, span := tracer.Start(ctx, createOrderName)
	defer span.End()

	if err := validateCreate(input); err != nil {
		return CreateOutput{}, err
	}

	uow := uc.NewUnitOfWork()
	defer transaction.Release(ctx, uow, uc.Logger)

	var placed entity.Order
	err := transaction.RunWithRetry(ctx, uc.Logger, uc.Metrics, createOrderName, uc.Retry, func(ctx context.Context) error {
		o, err := uc.place(ctx, uow, input)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.Logger.Warn(ctx, "Order rejected",
			logger.String("customer", input.CustomerName),
			logger.WithError(err),
		)
		return CreateOutput{}, err
	}

	span.SetAttributes(attribute.Int64("order.id", placed.ID()))
	uc.Metrics.RecordOrderCreated(placed.StatusName())
	uc.Logger.Info(ctx, "Order placed",
		logger.Int64("order_id", placed.ID()),
		logger.Int64("total_cents", placed.TotalCents()),
		logger.Int("items", len(placed.Items())),
	)
	return toOutput(placed), nil
}

// place runs one attempt: reserve stock for every line, persist the order
// with its lines and the confirmation event, then commit.
func (uc *CreateUseCaseImpl) place(ctx context.Context, uow outbound.UnitOfWork, input CreateInput) (entity.Order, error) {
	if err := uow.BeginTransaction(ctx); err != nil {
		return entity.Order{}, err
	}
	fail := func(err error) (entity.Order, error) {
		return entity.Order{}, transaction.Abort(ctx, uow, uc.Logger, err)
	}

	now := uc.Now()
	order, err := entity.NewOrder(input.CustomerName, now)
	if err != nil {
		return fail(err)
	}

	for _, line := range input.Items {
		product, err := uow.Products().GetByID(ctx, line.ProductID)
		if err != nil {
			return fail(notFound(err, ErrProductNotFound, line.ProductID))
		}
		if err := product.DecreaseStock(line.Quantity); err != nil {
			return fail(err)
		}
		if err := uow.Products().Update(ctx, product); err != nil {
			return fail(err)
		}
		if _, err := order.AddItem(product, line.Quantity); err != nil {
			return fail(err)
		}
	}

	if err := order.Confirm(); err != nil {
		return fail(err)
	}
	saved, err := uow.Orders().Add(ctx, *order)
	if err != nil {
		return fail(err)
	}
	order.AssignID(saved.ID())

	lines := order.Items()
	for i, item := range lines {
		savedItem, err := uow.OrderItems().Add(ctx, item)
		if err != nil {
			return fail(err)
		}
		lines[i] = savedItem
	}
	order.AttachItems(lines)

	msg, err := newOutboxMessage(ctx, *order, events.TypeOrderConfirmed, events.TopicOrderConfirmed, now)
	if err != nil {
		return fail(err)
	}
	if _, err := uow.Outbox().Add(ctx, msg); err != nil {
		return fail(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return entity.Order{}, err
	}
	return *order, nil
}

func validateCreate(input CreateInput) error {
	if input.CustomerName == "" {
		return ErrCustomerNameRequired
	}
	if len(input.Items) == 0 {
		return ErrNoItems
	}
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return ErrQuantityMustBePositive
		}
	}
	return nil
}
