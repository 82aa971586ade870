package entity

import (
	"errors"
	"fmt"
)

var (
	ErrIDIsRequired           = errors.New("id is required")
	ErrNameIsRequired         = errors.New("name is required")
	ErrPriceMustBePos         = errors.New("price must be greater than zero")
	ErrStockMustBePos         = errors.New("stock must be greater than or equal to zero")
	ErrQuantityMustBePos      = errors.New("quantity must be greater than zero")
	ErrCustomerIsRequired     = errors.New("customer name is required")
	ErrOrderHasNoItems        = errors.New("order must have at least one item")
	ErrUnknownStatus          = errors.New("unknown order status")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// InsufficientStockError reports a stock decrement that would leave a
// product below zero. It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
