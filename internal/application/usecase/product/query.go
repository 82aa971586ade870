package product

import (
	"context"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/pkg/logger"
)

type GetUseCaseImpl struct {
	NewUnitOfWork outbound.UnitOfWorkFactory
	Logger        logger.Logger
}

func NewGetProductUseCase(factory outbound.UnitOfWorkFactory, log logger.Logger) *GetUseCaseImpl {
	return &GetUseCaseImpl{NewUnitOfWork: factory, Logger: log}
}

func (uc *GetUseCaseImpl) Execute(ctx context.Context, id int64) (Output, error) {
	uow := uc.NewUnitOfWork()
	defer transaction.Release(ctx, uow, uc.Logger)

	p, err := uow.Products().GetByID(ctx, id)
	if err != nil {
		return Output{}, notFound(err, id)
	}
	return toOutput(p), nil
}

type ListUseCaseImpl struct {
	NewUnitOfWork outbound.UnitOfWorkFactory
	Logger        logger.Logger
}

func NewListProductsUseCase(factory outbound.UnitOfWorkFactory, log logger.Logger) *ListUseCaseImpl {
	return &ListUseCaseImpl{NewUnitOfWork: factory, Logger: log}
}

func (uc *ListUseCaseImpl) Execute(ctx context.Context, input ListInput) ([]Output, error) {
	uow := uc.NewUnitOfWork()
	defer transaction.Release(ctx, uow, uc.Logger)

	criteria := outbound.Criteria{}
	if input.Category != "" {
		criteria["category"] = input.Category
	}
	products, err := uow.Products().Find(ctx, criteria)
	if err != nil {
		return nil, err
	}

	out := make([]Output, len(products))
	for i, p := range products {
		out[i] = toOutput(p)
	}
	return out, nil
}
