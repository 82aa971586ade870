package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/events"
	"github.com/DioGolang/GoStock/pkg/otel"
)

func newOutboxMessage(ctx context.Context, o entity.Order, eventType, topic string, now time.Time) (outbound.OutboxMessage, error) {
	eventID := uuid.NewString()
	lines := o.Items()
	evt := events.OrderEvent{
		EventID:      eventID,
		Type:         eventType,
		OrderID:      o.ID(),
		CustomerName: o.CustomerName(),
		Status:       o.StatusName(),
		TotalCents:   o.TotalCents(),
		Items:        make([]events.OrderEventItem, len(lines)),
		OccurredAt:   now.UTC(),
	}
	for i, item := range lines {
		evt.Items[i] = events.OrderEventItem{
			ProductID:      item.ProductID(),
			ProductName:    item.ProductName(),
			Quantity:       item.Quantity(),
			UnitPriceCents: item.UnitPriceCents(),
		}
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return outbound.OutboxMessage{}, err
	}
	return outbound.OutboxMessage{
		EventID:      eventID,
		AggregateID:  o.ID(),
		EventType:    eventType,
		EventVersion: events.OrderEventVersion,
		Topic:        topic,
		Payload:      payload,
		Status:       outbound.OutboxPending,
		TraceContext: otel.MarshalTraceContext(ctx),
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}
