package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

type uowState int

const (
	stateIdle uowState = iota
	stateInTransaction
	stateClosed
)

// UnitOfWorkImpl coordinates one transaction at a time over a Store
// connection it owns exclusively. Idle -> InTransaction -> (commit |
// rollback) -> Idle; Close is terminal.
type UnitOfWorkImpl struct {
	store   Store
	logger  logger.Logger
	metrics metrics.Metrics

	conn   Conn
	tx     Tx
	state  uowState
	staged int

	products   *repository[entity.Product]
	orders     *repository[entity.Order]
	orderItems *repository[entity.OrderItem]
	outbox     *repository[outbound.OutboxMessage]
}

var _ outbound.UnitOfWork = (*UnitOfWorkImpl)(nil)

func NewUnitOfWork(store Store, log logger.Logger, m metrics.Metrics) *UnitOfWorkImpl {
	return &UnitOfWorkImpl{
		store:   store,
		logger:  log.With(logger.String("store", store.Name())),
		metrics: m,
	}
}

// NewUnitOfWorkFactory returns a factory producing one coordinator per call.
func NewUnitOfWorkFactory(store Store, log logger.Logger, m metrics.Metrics) outbound.UnitOfWorkFactory {
	return func() outbound.UnitOfWork {
		return NewUnitOfWork(store, log, m)
	}
}

func (u *UnitOfWorkImpl) Products() outbound.ProductRepository {
	if u.products == nil {
		u.products = &repository[entity.Product]{uow: u, kind: "product", open: Session.Products}
	}
	return u.products
}

func (u *UnitOfWorkImpl) Orders() outbound.OrderRepository {
	if u.orders == nil {
		u.orders = &repository[entity.Order]{uow: u, kind: "order", open: Session.Orders}
	}
	return u.orders
}

func (u *UnitOfWorkImpl) OrderItems() outbound.OrderItemRepository {
	if u.orderItems == nil {
		u.orderItems = &repository[entity.OrderItem]{uow: u, kind: "order_item", open: Session.OrderItems}
	}
	return u.orderItems
}

func (u *UnitOfWorkImpl) Outbox() outbound.OutboxRepository {
	if u.outbox == nil {
		u.outbox = &repository[outbound.OutboxMessage]{uow: u, kind: "outbox", open: Session.Outbox}
	}
	return u.outbox
}

func (u *UnitOfWorkImpl) InTransaction() bool {
	return u.state == stateInTransaction
}

func (u *UnitOfWorkImpl) BeginTransaction(ctx context.Context) error {
	switch u.state {
	case stateClosed:
		return outbound.ErrUnitOfWorkClosed
	case stateInTransaction:
		u.logger.Error(ctx, "BeginTransaction called with a transaction already open")
		return outbound.ErrTransactionAlreadyOpen
	}
	if err := u.connect(ctx); err != nil {
		return err
	}

	tx, err := u.conn.Begin(ctx)
	if err != nil {
		return err
	}
	u.tx = tx
	u.state = stateInTransaction
	u.staged = 0
	u.logger.Debug(ctx, "transaction started")
	return nil
}

func (u *UnitOfWorkImpl) SaveChanges(ctx context.Context) (int, error) {
	if u.tx == nil {
		u.logger.Error(ctx, "SaveChanges called without a transaction")
		return 0, outbound.ErrTransactionNotOpen
	}
	if err := u.tx.Flush(ctx); err != nil {
		return 0, err
	}
	n := u.staged
	u.staged = 0
	return n, nil
}

func (u *UnitOfWorkImpl) Commit(ctx context.Context) error {
	if u.tx == nil {
		u.logger.Error(ctx, "Commit called without a transaction")
		return outbound.ErrTransactionNotOpen
	}
	flushed, err := u.SaveChanges(ctx)
	if err != nil {
		u.rollbackAfter(ctx, err)
		return err
	}
	if err := u.tx.Commit(ctx); err != nil {
		u.rollbackAfter(ctx, err)
		return err
	}
	u.finish("committed")
	u.logger.Debug(ctx, "transaction committed", logger.Int("flushed", flushed))
	return nil
}

// Rollback never observes caller cancellation: a cancelled request must
// still release its transaction.
func (u *UnitOfWorkImpl) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(context.WithoutCancel(ctx))
	u.finish("rolled_back")
	if err != nil {
		return err
	}
	u.logger.Debug(ctx, "transaction rolled back")
	return nil
}

func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(provider outbound.RepositoryProvider) error) error {
	if err := u.BeginTransaction(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			u.rollbackAfter(ctx, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	if err := fn(u); err != nil {
		u.rollbackAfter(ctx, err)
		return err
	}
	return u.Commit(ctx)
}

func (u *UnitOfWorkImpl) Close(ctx context.Context) error {
	if u.state == stateClosed {
		return nil
	}
	var errs []error
	if err := u.Rollback(ctx); err != nil {
		errs = append(errs, err)
	}
	if u.conn != nil {
		if err := u.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		u.conn = nil
	}
	u.state = stateClosed
	return errors.Join(errs...)
}

// rollbackAfter rolls back on a failure path. A rollback error is logged and
// dropped so the caller keeps seeing cause.
func (u *UnitOfWorkImpl) rollbackAfter(ctx context.Context, cause error) {
	if err := u.Rollback(ctx); err != nil {
		u.logger.Error(ctx, "rollback failed",
			logger.WithError(err),
			logger.String("cause", cause.Error()),
		)
	}
}

func (u *UnitOfWorkImpl) finish(outcome string) {
	u.tx = nil
	u.staged = 0
	if u.state == stateInTransaction {
		u.state = stateIdle
	}
	u.metrics.RecordTransaction(u.store.Name(), outcome)
}

func (u *UnitOfWorkImpl) connect(ctx context.Context) error {
	if u.conn != nil {
		return nil
	}
	conn, err := u.store.Connect(ctx)
	if err != nil {
		return err
	}
	u.conn = conn
	return nil
}

func (u *UnitOfWorkImpl) readSession(ctx context.Context) (Session, error) {
	if u.state == stateClosed {
		return nil, outbound.ErrUnitOfWorkClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.tx != nil {
		return u.tx, nil
	}
	if err := u.connect(ctx); err != nil {
		return nil, err
	}
	return u.conn.Session(), nil
}

func (u *UnitOfWorkImpl) writeSession(ctx context.Context, kind, op string) (Session, error) {
	if u.state == stateClosed {
		return nil, outbound.ErrUnitOfWorkClosed
	}
	if u.tx == nil {
		u.logger.Error(ctx, "write outside a transaction",
			logger.String("kind", kind),
			logger.String("op", op),
		)
		return nil, outbound.ErrTransactionNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.tx, nil
}

func (u *UnitOfWorkImpl) track(ctx context.Context, kind, op string, fields ...logger.Field) {
	u.staged++
	u.logger.Debug(ctx, "operation staged",
		append([]logger.Field{logger.String("kind", kind), logger.String("op", op)}, fields...)...)
}
