package outbound

import (
	"context"
	"errors"
)

var (
	ErrTransactionAlreadyOpen = errors.New("transaction already open")
	ErrTransactionNotOpen     = errors.New("no transaction open")
	ErrUnitOfWorkClosed       = errors.New("unit of work closed")
)

// RepositoryProvider gives access to every repository bound to one unit of work.
type RepositoryProvider interface {
	Products() ProductRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Outbox() OutboxRepository
}

// UnitOfWork manages atomicity across the repositories it provides.
// A UnitOfWork belongs to a single caller and is not safe for concurrent use.
type UnitOfWork interface {
	RepositoryProvider

	BeginTransaction(ctx context.Context) error
	// SaveChanges flushes the staged operations without ending the
	// transaction and reports how many were flushed.
	SaveChanges(ctx context.Context) (int, error)
	// Commit flushes and finalizes; on failure everything is rolled back
	// and the original error is returned.
	Commit(ctx context.Context) error
	// Rollback discards everything staged since BeginTransaction. It is a
	// no-op when no transaction is open.
	Rollback(ctx context.Context) error
	InTransaction() bool

	// Do runs fn inside a transaction, committing when fn returns nil.
	Do(ctx context.Context, fn func(provider RepositoryProvider) error) error

	// Close rolls back an open transaction and releases the connection.
	Close(ctx context.Context) error
}

// UnitOfWorkFactory creates a fresh UnitOfWork per logical operation.
type UnitOfWorkFactory func() UnitOfWork
