package order

import (
	"time"

	"github.com/DioGolang/GoStock/internal/domain/entity"
)

// Input

type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CreateInput struct {
	CustomerName string      `json:"customer_name"`
	Items        []ItemInput `json:"items"`
}

type CancelInput struct {
	OrderID int64 `json:"order_id"`
}

type GetInput struct {
	OrderID int64 `json:"order_id"`
}

// Output

type ItemOutput struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type OrderOutput struct {
	ID           int64        `json:"id"`
	CustomerName string       `json:"customer_name"`
	Status       string       `json:"status"`
	TotalCents   int64        `json:"total_cents"`
	CreatedAt    time.Time    `json:"created_at"`
	Items        []ItemOutput `json:"items"`
}

type CreateOutput = OrderOutput

type GetOutput = OrderOutput

func toOutput(o entity.Order) OrderOutput {
	items := o.Items()
	out := OrderOutput{
		ID:           o.ID(),
		CustomerName: o.CustomerName(),
		Status:       o.StatusName(),
		TotalCents:   o.TotalCents(),
		CreatedAt:    o.CreatedAt(),
		Items:        make([]ItemOutput, len(items)),
	}
	for i, item := range items {
		out.Items[i] = ItemOutput{
			ID:             item.ID(),
			ProductID:      item.ProductID(),
			ProductName:    item.ProductName(),
			Quantity:       item.Quantity(),
			UnitPriceCents: item.UnitPriceCents(),
			SubtotalCents:  item.Subtotal(),
		}
	}
	return out
}
