package product

import (
	"context"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

type RestockUseCaseImpl struct {
	NewUnitOfWork outbound.UnitOfWorkFactory
	Logger        logger.Logger
	Metrics       metrics.Metrics
	Retry         transaction.RetryPolicy
}

func NewRestockProductUseCase(
	factory outbound.UnitOfWorkFactory,
	log logger.Logger,
	m metrics.Metrics,
	retry transaction.RetryPolicy,
) *RestockUseCaseImpl {
	return &RestockUseCaseImpl{NewUnitOfWork: factory, Logger: log, Metrics: m, Retry: retry}
}

func (uc *RestockUseCaseImpl) Execute(ctx context.Context, input RestockInput) (Output, error) {
	if input.Quantity <= 0 {
		return Output{}, entity.ErrQuantityMustBePos
	}

	uow := uc.NewUnitOfWork()
	defer transaction.Release(ctx, uow, uc.Logger)

	var restocked entity.Product
	err := transaction.RunWithRetry(ctx, uc.Logger, uc.Metrics, "RestockProduct", uc.Retry, func(ctx context.Context) error {
		return uow.Do(ctx, func(r outbound.RepositoryProvider) error {
			p, err := r.Products().GetByID(ctx, input.ProductID)
			if err != nil {
				return notFound(err, input.ProductID)
			}
			if err := p.IncreaseStock(input.Quantity); err != nil {
				return err
			}
			if err := r.Products().Update(ctx, p); err != nil {
				return err
			}
			restocked = p
			return nil
		})
	})
	if err != nil {
		return Output{}, err
	}

	uc.Logger.Info(ctx, "Product restocked",
		logger.Int64("product_id", restocked.ID()),
		logger.Int("added", input.Quantity),
		logger.Int("stock", restocked.Stock()),
	)
	return toOutput(restocked), nil
}
