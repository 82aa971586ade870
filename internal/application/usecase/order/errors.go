package order

import (
	"errors"
	"fmt"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
)

var ErrInvalidInput = errors.New("invalid order input")

var (
	ErrCustomerNameRequired   = fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	ErrNoItems                = fmt.Errorf("%w: order must have at least one item", ErrInvalidInput)
	ErrQuantityMustBePositive = fmt.Errorf("%w: item quantity must be positive", ErrInvalidInput)
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", outbound.ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", outbound.ErrNotFound)
)

// notFound narrows a store ErrNotFound to the workflow-level sentinel and
// passes every other error through.
func notFound(err error, sentinel error, id int64) error {
	if errors.Is(err, outbound.ErrNotFound) {
		return fmt.Errorf("%w: id %d", sentinel, id)
	}
	return err
}
