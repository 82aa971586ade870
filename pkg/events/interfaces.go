package events

import (
	"context"
	"time"
)

const (
	TypeOrderConfirmed = "order.confirmed"
	TypeOrderCancelled = "order.cancelled"

	TopicOrderConfirmed = "orders.confirmed"
	TopicOrderCancelled = "orders.cancelled"

	// OrderEventVersion is bumped whenever OrderEvent changes shape.
	OrderEventVersion = 1
)

// Publisher delivers an already serialized event to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, headers map[string]string) error
}

type OrderEventItem struct {
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// OrderEvent is the body of every order topic message.
type OrderEvent struct {
	EventID      string           `json:"event_id"`
	Type         string           `json:"type"`
	OrderID      int64            `json:"order_id"`
	CustomerName string           `json:"customer_name"`
	Status       string           `json:"status"`
	TotalCents   int64            `json:"total_cents"`
	Items        []OrderEventItem `json:"items"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
