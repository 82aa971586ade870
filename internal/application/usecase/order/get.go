package order

import (
	"context"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/pkg/logger"
)

// GetUseCaseImpl reads committed state only; it never opens a transaction.
type GetUseCaseImpl struct {
	NewUnitOfWork outbound.UnitOfWorkFactory
	Logger        logger.Logger
}

func NewGetOrderUseCase(factory outbound.UnitOfWorkFactory, log logger.Logger) *GetUseCaseImpl {
	return &GetUseCaseImpl{NewUnitOfWork: factory, Logger: log}
}

func (uc *GetUseCaseImpl) Execute(ctx context.Context, input GetInput) (GetOutput, error) {
	uow := uc.NewUnitOfWork()
	defer transaction.Release(ctx, uow, uc.Logger)

	order, err := uow.Orders().GetByID(ctx, input.OrderID)
	if err != nil {
		return GetOutput{}, notFound(err, ErrOrderNotFound, input.OrderID)
	}
	items, err := uow.OrderItems().Find(ctx, outbound.Criteria{"order_id": input.OrderID})
	if err != nil {
		return GetOutput{}, err
	}
	order.AttachItems(items)
	return toOutput(order), nil
}
