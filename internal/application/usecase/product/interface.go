package product

import (
	"context"
)

type CreateUseCase interface {
	Execute(ctx context.Context, input CreateInput) (Output, error)
}

type GetUseCase interface {
	Execute(ctx context.Context, id int64) (Output, error)
}

type ListUseCase interface {
	Execute(ctx context.Context, input ListInput) ([]Output, error)
}

type RestockUseCase interface {
	Execute(ctx context.Context, input RestockInput) (Output, error)
}
