package product

import (
	"errors"
	"fmt"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
)

var ErrProductNotFound = fmt.Errorf("product %w", outbound.ErrNotFound)

func notFound(err error, id int64) error {
	if errors.Is(err, outbound.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return err
}

// Input

type CreateInput struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Category   string `json:"category"`
}

type ListInput struct {
	Category string `json:"category"`
}

type RestockInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Output

type Output struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Category   string `json:"category"`
}

func toOutput(p entity.Product) Output {
	return Output{
		ID:         p.ID(),
		Name:       p.Name(),
		PriceCents: p.PriceCents(),
		Stock:      p.Stock(),
		Category:   p.Category(),
	}
}
