package outbound

import (
	"context"
	"errors"

	"github.com/DioGolang/GoStock/internal/domain/entity"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrUnknownColumn       = errors.New("unknown column in criteria")
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
)

// Criteria selects records whose named columns equal the given values.
// An empty Criteria matches every record.
type Criteria map[string]any

// Repository is the CRUD contract shared by every entity kind. Writes are
// staged in the current transaction and become durable only on commit.
type Repository[T any] interface {
	GetByID(ctx context.Context, id int64) (T, error)
	Find(ctx context.Context, criteria Criteria) ([]T, error)
	Add(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id int64) error
}

type ProductRepository = Repository[entity.Product]
type OrderRepository = Repository[entity.Order]
type OrderItemRepository = Repository[entity.OrderItem]
type OutboxRepository = Repository[OutboxMessage]
