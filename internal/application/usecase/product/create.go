package product

import (
	"context"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/logger"
)

type CreateUseCaseImpl struct {
	NewUnitOfWork outbound.UnitOfWorkFactory
	Logger        logger.Logger
}

func NewCreateProductUseCase(factory outbound.UnitOfWorkFactory, log logger.Logger) *CreateUseCaseImpl {
	return &CreateUseCaseImpl{NewUnitOfWork: factory, Logger: log}
}

func (uc *CreateUseCaseImpl) Execute(ctx context.Context, input CreateInput) (Output, error) {
	p, err := entity.NewProduct(input.Name, input.PriceCents, input.Stock, input.Category)
	if err != nil {
		return Output{}, err
	}

	uow := uc.NewUnitOfWork()
	defer transaction.Release(ctx, uow, uc.Logger)

	var saved entity.Product
	err = uow.Do(ctx, func(r outbound.RepositoryProvider) error {
		saved, err = r.Products().Add(ctx, *p)
		return err
	})
	if err != nil {
		return Output{}, err
	}

	uc.Logger.Info(ctx, "Product created",
		logger.Int64("product_id", saved.ID()),
		logger.String("name", saved.Name()),
		logger.Int("stock", saved.Stock()),
	)
	return toOutput(saved), nil
}
