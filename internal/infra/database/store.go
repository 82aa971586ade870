package database

import (
	"context"
	"errors"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
)

// EntityStore is the engine-level CRUD for one entity kind, bound either to
// a transaction or to autocommit reads.
type EntityStore[T any] interface {
	GetByID(ctx context.Context, id int64) (T, error)
	Find(ctx context.Context, criteria outbound.Criteria) ([]T, error)
	Insert(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id int64) error
}

type Session interface {
	Products() EntityStore[entity.Product]
	Orders() EntityStore[entity.Order]
	OrderItems() EntityStore[entity.OrderItem]
	Outbox() EntityStore[outbound.OutboxMessage]
}

// Tx is one open transaction on a Conn.
type Tx interface {
	Session
	// Flush pushes staged writes as far as the engine allows without
	// ending the transaction.
	Flush(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is a store connection owned by exactly one unit of work.
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
	// Session reads committed state outside any transaction.
	Session() Session
	Close() error
}

// Store is the durable engine behind the unit of work.
type Store interface {
	Name() string
	Connect(ctx context.Context) (Conn, error)
}

var errConnClosed = errors.New("store connection closed")
