package database

import (
	"context"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/logger"
)

// repository is the per-kind facade handed out by the unit of work. It holds
// no state of its own: every call resolves the coordinator's current session.
type repository[T any] struct {
	uow  *UnitOfWorkImpl
	kind string
	open func(Session) EntityStore[T]
}

var (
	_ outbound.ProductRepository   = (*repository[entity.Product])(nil)
	_ outbound.OrderRepository     = (*repository[entity.Order])(nil)
	_ outbound.OrderItemRepository = (*repository[entity.OrderItem])(nil)
	_ outbound.OutboxRepository    = (*repository[outbound.OutboxMessage])(nil)
)

func (r *repository[T]) GetByID(ctx context.Context, id int64) (T, error) {
	s, err := r.uow.readSession(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.open(s).GetByID(ctx, id)
}

func (r *repository[T]) Find(ctx context.Context, criteria outbound.Criteria) ([]T, error) {
	s, err := r.uow.readSession(ctx)
	if err != nil {
		return nil, err
	}
	return r.open(s).Find(ctx, criteria)
}

func (r *repository[T]) Add(ctx context.Context, entity T) (T, error) {
	s, err := r.uow.writeSession(ctx, r.kind, "add")
	if err != nil {
		var zero T
		return zero, err
	}
	saved, err := r.open(s).Insert(ctx, entity)
	if err != nil {
		return saved, err
	}
	r.uow.track(ctx, r.kind, "add")
	return saved, nil
}

func (r *repository[T]) Update(ctx context.Context, entity T) error {
	s, err := r.uow.writeSession(ctx, r.kind, "update")
	if err != nil {
		return err
	}
	if err := r.open(s).Update(ctx, entity); err != nil {
		return err
	}
	r.uow.track(ctx, r.kind, "update")
	return nil
}

func (r *repository[T]) Delete(ctx context.Context, id int64) error {
	s, err := r.uow.writeSession(ctx, r.kind, "delete")
	if err != nil {
		return err
	}
	if err := r.open(s).Delete(ctx, id); err != nil {
		return err
	}
	r.uow.track(ctx, r.kind, "delete", logger.Int64("id", id))
	return nil
}
