package order

import (
	"context"
)

type CreateUseCase interface {
	Execute(ctx context.Context, input CreateInput) (CreateOutput, error)
}

type CancelUseCase interface {
	Execute(ctx context.Context, input CancelInput) error
}

type GetUseCase interface {
	Execute(ctx context.Context, input GetInput) (GetOutput, error)
}
