package database

import (
	"fmt"
	"time"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
)

var productSQLSchema = sqlSchema[entity.Product]{
	table:         "products",
	columns:       []string{"name", "price_cents", "stock", "category"},
	lockForUpdate: true,
	id:            entity.Product.ID,
	assignID:      (*entity.Product).AssignID,
	values: func(p entity.Product) []any {
		return []any{p.Name(), p.PriceCents(), p.Stock(), p.Category()}
	},
	scan: func(r rowScanner) (entity.Product, error) {
		var (
			id         int64
			name       string
			priceCents int64
			stock      int
			category   string
		)
		if err := r.Scan(&id, &name, &priceCents, &stock, &category); err != nil {
			return entity.Product{}, err
		}
		return entity.RestoreProduct(id, name, priceCents, stock, category), nil
	},
}

var orderSQLSchema = sqlSchema[entity.Order]{
	table:         "orders",
	columns:       []string{"customer_name", "created_at", "total_cents", "status"},
	lockForUpdate: true,
	id:            entity.Order.ID,
	assignID:      (*entity.Order).AssignID,
	values: func(o entity.Order) []any {
		return []any{o.CustomerName(), o.CreatedAt(), o.TotalCents(), o.StatusName()}
	},
	scan: func(r rowScanner) (entity.Order, error) {
		var (
			id         int64
			customer   string
			createdAt  timestamp
			totalCents int64
			status     string
		)
		if err := r.Scan(&id, &customer, &createdAt, &totalCents, &status); err != nil {
			return entity.Order{}, err
		}
		return entity.RestoreOrder(id, customer, createdAt.Time, totalCents, status)
	},
}

var orderItemSQLSchema = sqlSchema[entity.OrderItem]{
	table:    "order_items",
	columns:  []string{"order_id", "product_id", "product_name", "quantity", "unit_price_cents"},
	id:       entity.OrderItem.ID,
	assignID: (*entity.OrderItem).AssignID,
	values: func(i entity.OrderItem) []any {
		return []any{i.OrderID(), i.ProductID(), i.ProductName(), i.Quantity(), i.UnitPriceCents()}
	},
	scan: func(r rowScanner) (entity.OrderItem, error) {
		var (
			id, orderID, productID int64
			productName            string
			quantity               int
			unitPriceCents         int64
		)
		if err := r.Scan(&id, &orderID, &productID, &productName, &quantity, &unitPriceCents); err != nil {
			return entity.OrderItem{}, err
		}
		return entity.RestoreOrderItem(id, orderID, productID, productName, quantity, unitPriceCents), nil
	},
}

var outboxSQLSchema = sqlSchema[outbound.OutboxMessage]{
	table: "outbox",
	columns: []string{
		"event_id", "aggregate_id", "event_type", "event_version", "topic",
		"payload", "status", "attempts", "last_error", "trace_context", "created_at", "updated_at",
	},
	id:       func(m outbound.OutboxMessage) int64 { return m.ID },
	assignID: func(m *outbound.OutboxMessage, id int64) { m.ID = id },
	values: func(m outbound.OutboxMessage) []any {
		return []any{
			m.EventID, m.AggregateID, m.EventType, m.EventVersion, m.Topic,
			m.Payload, m.Status, m.Attempts, m.LastError, m.TraceContext, m.CreatedAt, m.UpdatedAt,
		}
	},
	scan: func(r rowScanner) (outbound.OutboxMessage, error) {
		var (
			m                    outbound.OutboxMessage
			createdAt, updatedAt timestamp
		)
		err := r.Scan(&m.ID, &m.EventID, &m.AggregateID, &m.EventType, &m.EventVersion, &m.Topic,
			&m.Payload, &m.Status, &m.Attempts, &m.LastError, &m.TraceContext, &createdAt, &updatedAt)
		if err != nil {
			return outbound.OutboxMessage{}, err
		}
		m.CreatedAt, m.UpdatedAt = createdAt.Time, updatedAt.Time
		return m, nil
	},
}

// timestamp scans both native time values (postgres) and the text form
// sqlite hands back for DATETIME columns.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("timestamp: unsupported type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}
