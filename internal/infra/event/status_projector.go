package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DioGolang/GoStock/pkg/events"
	"github.com/DioGolang/GoStock/pkg/logger"
)

// OrderStatusView is the read model kept per order by the worker.
type OrderStatusView struct {
	OrderID    int64
	Status     string
	TotalCents int64
	UpdatedAt  time.Time
}

type OrderStatusStore interface {
	// SaveOrderStatus stores view unless a newer one is already present and
	// reports whether it was written.
	SaveOrderStatus(ctx context.Context, view OrderStatusView) (bool, error)
}

// StatusProjector turns order events into OrderStatusView records.
type StatusProjector struct {
	store  OrderStatusStore
	logger logger.Logger
}

func NewStatusProjector(store OrderStatusStore, log logger.Logger) *StatusProjector {
	return &StatusProjector{store: store, logger: log}
}

func (p *StatusProjector) Handle(ctx context.Context, msg []byte, headers map[string]interface{}) error {
	var evt events.OrderEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("%w: decode order event: %w", ErrPoisonMessage, err)
	}
	if evt.OrderID == 0 || evt.Status == "" {
		return fmt.Errorf("%w: order event without order id or status", ErrPoisonMessage)
	}

	written, err := p.store.SaveOrderStatus(ctx, OrderStatusView{
		OrderID:    evt.OrderID,
		Status:     evt.Status,
		TotalCents: evt.TotalCents,
		UpdatedAt:  evt.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("project order %d: %w", evt.OrderID, err)
	}

	if !written {
		p.logger.Debug(ctx, "Stale order event ignored",
			logger.Int64("order_id", evt.OrderID),
			logger.String("status", evt.Status),
		)
		return nil
	}
	p.logger.Info(ctx, "Order status projected",
		logger.Int64("order_id", evt.OrderID),
		logger.String("status", evt.Status),
	)
	return nil
}
