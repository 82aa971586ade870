package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

func newTestUoW(store Store) *UnitOfWorkImpl {
	return NewUnitOfWork(store, logger.NewNop(), metrics.NewNop())
}

func seedProduct(t *testing.T, store Store, name string, stock int) entity.Product {
	t.Helper()
	ctx := context.Background()
	uow := newTestUoW(store)
	defer func() { _ = uow.Close(ctx) }()

	p, err := entity.NewProduct(name, 1000, stock, "test")
	require.NoError(t, err)
	var saved entity.Product
	require.NoError(t, uow.Do(ctx, func(r outbound.RepositoryProvider) error {
		saved, err = r.Products().Add(ctx, *p)
		return err
	}))
	return saved
}

func committedStock(t *testing.T, store Store, id int64) int {
	t.Helper()
	ctx := context.Background()
	uow := newTestUoW(store)
	defer func() { _ = uow.Close(ctx) }()

	p, err := uow.Products().GetByID(ctx, id)
	require.NoError(t, err)
	return p.Stock()
}

func TestUnitOfWork_CommitMakesWritesDurable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 10)

	uow := newTestUoW(store)
	defer func() { _ = uow.Close(ctx) }()
	require.NoError(t, uow.BeginTransaction(ctx))

	require.NoError(t, product.DecreaseStock(2))
	require.NoError(t, uow.Products().Update(ctx, product))

	staged, err := uow.Products().GetByID(ctx, product.ID())
	require.NoError(t, err)
	assert.Equal(t, 8, staged.Stock(), "staged write must be visible inside the transaction")
	assert.Equal(t, 10, committedStock(t, store, product.ID()), "staged write must not leak before commit")

	require.NoError(t, uow.Commit(ctx))
	assert.False(t, uow.InTransaction())
	assert.Equal(t, 8, committedStock(t, store, product.ID()))
}

func TestUnitOfWork_RollbackDiscardsEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 10)

	uow := newTestUoW(store)
	defer func() { _ = uow.Close(ctx) }()
	require.NoError(t, uow.BeginTransaction(ctx))

	require.NoError(t, product.DecreaseStock(5))
	require.NoError(t, uow.Products().Update(ctx, product))
	order, err := entity.NewOrder("alice", time.Now())
	require.NoError(t, err)
	_, err = uow.Orders().Add(ctx, *order)
	require.NoError(t, err)

	require.NoError(t, uow.Rollback(ctx))

	assert.Equal(t, 10, committedStock(t, store, product.ID()))
	orders, err := uow.Orders().Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUnitOfWork_RollbackIsIdempotent(t *testing.T) {
	ctx := context.Background()
	uow := newTestUoW(NewMemoryStore())
	defer func() { _ = uow.Close(ctx) }()

	assert.NoError(t, uow.Rollback(ctx), "rollback without a transaction is a no-op")

	require.NoError(t, uow.BeginTransaction(ctx))
	assert.NoError(t, uow.Rollback(ctx))
	assert.NoError(t, uow.Rollback(ctx))
	assert.False(t, uow.InTransaction())
}

func TestUnitOfWork_RollbackIgnoresCallerCancellation(t *testing.T) {
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 10)

	ctx, cancel := context.WithCancel(context.Background())
	uow := newTestUoW(store)
	defer func() { _ = uow.Close(context.Background()) }()
	require.NoError(t, uow.BeginTransaction(ctx))
	require.NoError(t, product.DecreaseStock(1))
	require.NoError(t, uow.Products().Update(ctx, product))

	cancel()
	assert.ErrorIs(t, uow.Commit(ctx), context.Canceled)
	assert.False(t, uow.InTransaction(), "a failed commit must roll back")
	assert.Equal(t, 10, committedStock(t, store, product.ID()))
}

func TestUnitOfWork_ContractViolations(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.ErrorLevel)
	uow := NewUnitOfWork(NewMemoryStore(), logger.FromZap(zap.New(core)), metrics.NewNop())

	_, err := uow.SaveChanges(ctx)
	assert.ErrorIs(t, err, outbound.ErrTransactionNotOpen)
	assert.ErrorIs(t, uow.Commit(ctx), outbound.ErrTransactionNotOpen)

	p, err := entity.NewProduct("Mouse", 100, 1, "")
	require.NoError(t, err)
	_, err = uow.Products().Add(ctx, *p)
	assert.ErrorIs(t, err, outbound.ErrTransactionNotOpen)

	require.NoError(t, uow.BeginTransaction(ctx))
	assert.ErrorIs(t, uow.BeginTransaction(ctx), outbound.ErrTransactionAlreadyOpen)
	assert.True(t, uow.InTransaction(), "a rejected begin must not disturb the open transaction")

	require.NoError(t, uow.Close(ctx))
	assert.ErrorIs(t, uow.BeginTransaction(ctx), outbound.ErrUnitOfWorkClosed)
	_, err = uow.Products().GetByID(ctx, 1)
	assert.ErrorIs(t, err, outbound.ErrUnitOfWorkClosed)

	assert.Equal(t, 4, logs.Len(), "each contract violation is logged at error level")
}

func TestUnitOfWork_SaveChangesReportsStagedCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 10)

	uow := newTestUoW(store)
	defer func() { _ = uow.Close(ctx) }()
	require.NoError(t, uow.BeginTransaction(ctx))

	n, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, product.DecreaseStock(1))
	require.NoError(t, uow.Products().Update(ctx, product))
	order, err := entity.NewOrder("bob", time.Now())
	require.NoError(t, err)
	_, err = uow.Orders().Add(ctx, *order)
	require.NoError(t, err)

	n, err = uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, uow.InTransaction(), "SaveChanges keeps the transaction open")

	n, err = uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, uow.Commit(ctx))
	assert.Equal(t, 9, committedStock(t, store, product.ID()))
}

func TestUnitOfWork_RepositoriesAreLazyAndReused(t *testing.T) {
	uow := newTestUoW(NewMemoryStore())

	assert.Nil(t, uow.products)
	first := uow.Products()
	assert.Same(t, first, uow.Products())
	assert.Same(t, uow.Orders(), uow.Orders())
	assert.Same(t, uow.OrderItems(), uow.OrderItems())
	assert.Same(t, uow.Outbox(), uow.Outbox())
}

func TestUnitOfWork_RepositoryFollowsTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 10)

	uow := newTestUoW(store)
	defer func() { _ = uow.Close(ctx) }()
	repo := uow.Products()

	for _, want := range []int{9, 8} {
		require.NoError(t, uow.BeginTransaction(ctx))
		p, err := repo.GetByID(ctx, product.ID())
		require.NoError(t, err)
		require.NoError(t, p.DecreaseStock(1))
		require.NoError(t, repo.Update(ctx, p))
		require.NoError(t, uow.Commit(ctx))
		assert.Equal(t, want, committedStock(t, store, product.ID()))
	}
}

func TestUnitOfWork_DoCommitsOrRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 10)
	uow := newTestUoW(store)
	defer func() { _ = uow.Close(ctx) }()

	boom := errors.New("boom")
	err := uow.Do(ctx, func(r outbound.RepositoryProvider) error {
		p, err := r.Products().GetByID(ctx, product.ID())
		if err != nil {
			return err
		}
		if err := p.DecreaseStock(4); err != nil {
			return err
		}
		if err := r.Products().Update(ctx, p); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 10, committedStock(t, store, product.ID()))

	assert.Panics(t, func() {
		_ = uow.Do(ctx, func(r outbound.RepositoryProvider) error {
			p, _ := r.Products().GetByID(ctx, product.ID())
			_ = p.DecreaseStock(4)
			_ = r.Products().Update(ctx, p)
			panic("handler exploded")
		})
	})
	assert.False(t, uow.InTransaction())
	assert.Equal(t, 10, committedStock(t, store, product.ID()))

	require.NoError(t, uow.Do(ctx, func(r outbound.RepositoryProvider) error {
		p, err := r.Products().GetByID(ctx, product.ID())
		if err != nil {
			return err
		}
		if err := p.DecreaseStock(4); err != nil {
			return err
		}
		return r.Products().Update(ctx, p)
	}))
	assert.Equal(t, 6, committedStock(t, store, product.ID()))
}

func TestUnitOfWork_CloseRollsBackAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 10)

	uow := newTestUoW(store)
	require.NoError(t, uow.BeginTransaction(ctx))
	require.NoError(t, product.DecreaseStock(3))
	require.NoError(t, uow.Products().Update(ctx, product))

	require.NoError(t, uow.Close(ctx))
	require.NoError(t, uow.Close(ctx))
	assert.Equal(t, 10, committedStock(t, store, product.ID()))
}

func TestUnitOfWork_ConflictingCommitRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := seedProduct(t, store, "Keyboard", 3)

	a, b := newTestUoW(store), newTestUoW(store)
	defer func() { _ = a.Close(ctx) }()
	defer func() { _ = b.Close(ctx) }()
	require.NoError(t, a.BeginTransaction(ctx))
	require.NoError(t, b.BeginTransaction(ctx))

	pa, err := a.Products().GetByID(ctx, product.ID())
	require.NoError(t, err)
	pb, err := b.Products().GetByID(ctx, product.ID())
	require.NoError(t, err)

	require.NoError(t, pa.DecreaseStock(2))
	require.NoError(t, a.Products().Update(ctx, pa))
	require.NoError(t, pb.DecreaseStock(2))
	require.NoError(t, b.Products().Update(ctx, pb))

	require.NoError(t, a.Commit(ctx))
	assert.ErrorIs(t, b.Commit(ctx), outbound.ErrConcurrencyConflict)
	assert.False(t, b.InTransaction())
	assert.Equal(t, 1, committedStock(t, store, product.ID()))
}

func TestUnitOfWorkFactory_CreatesIndependentUnits(t *testing.T) {
	factory := NewUnitOfWorkFactory(NewMemoryStore(), logger.NewNop(), metrics.NewNop())

	a, b := factory(), factory()
	assert.NotSame(t, a, b)
}
