package entity

import (
	"time"
)

// Order aggregates the lines reserved for one customer. Status changes go
// through OrderState so illegal transitions are rejected in one place.
type Order struct {
	id           int64
	customerName string
	createdAt    time.Time
	totalCents   int64
	state        OrderState
	items        []OrderItem
}

func NewOrder(customerName string, createdAt time.Time) (*Order, error) {
	if customerName == "" {
		return nil, ErrCustomerIsRequired
	}
	return &Order{
		customerName: customerName,
		createdAt:    createdAt.UTC(),
		state:        &PendingState{},
	}, nil
}

// RestoreOrder rebuilds a persisted order. Items are attached separately.
func RestoreOrder(id int64, customerName string, createdAt time.Time, totalCents int64, status string) (Order, error) {
	state, err := stateFromName(status)
	if err != nil {
		return Order{}, err
	}
	return Order{
		id:           id,
		customerName: customerName,
		createdAt:    createdAt.UTC(),
		totalCents:   totalCents,
		state:        state,
	}, nil
}

// AddItem snapshots product into a new line and adds its subtotal to the
// order total. Lines can only be added while the order is pending.
func (o *Order) AddItem(product Product, quantity int) (OrderItem, error) {
	if o.state.Name() != StatusPending {
		return OrderItem{}, ErrInvalidStateTransition
	}
	item, err := NewOrderItem(product, quantity)
	if err != nil {
		return OrderItem{}, err
	}
	item.orderID = o.id
	o.items = append(o.items, item)
	o.totalCents += item.Subtotal()
	return item, nil
}

func (o *Order) Confirm() error {
	return o.state.Confirm(o)
}

func (o *Order) Cancel() error {
	return o.state.Cancel(o)
}

func (o *Order) TransitionTo(state OrderState) {
	o.state = state
}

// AssignID sets the order identifier and propagates it to the owned lines.
func (o *Order) AssignID(id int64) {
	o.id = id
	items := make([]OrderItem, len(o.items))
	for i, item := range o.items {
		item.orderID = id
		items[i] = item
	}
	o.items = items
}

// AttachItems replaces the loaded lines, typically after reading them from
// their own store.
func (o *Order) AttachItems(items []OrderItem) {
	o.items = append([]OrderItem(nil), items...)
}

// WithoutItems returns a copy of the order header.
func (o Order) WithoutItems() Order {
	o.items = nil
	return o
}

func (o Order) ID() int64 {
	return o.id
}

func (o Order) CustomerName() string {
	return o.customerName
}

func (o Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o Order) TotalCents() int64 {
	return o.totalCents
}

func (o Order) StatusName() string {
	if o.state == nil {
		return StatusPending
	}
	return o.state.Name()
}

func (o Order) Items() []OrderItem {
	return append([]OrderItem(nil), o.items...)
}
