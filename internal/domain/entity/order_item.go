package entity

// OrderItem is an immutable line of an order. Name and price are copied from
// the product when the line is created.
type OrderItem struct {
	id             int64
	orderID        int64
	productID      int64
	productName    string
	quantity       int
	unitPriceCents int64
}

func NewOrderItem(product Product, quantity int) (OrderItem, error) {
	if product.ID() == 0 {
		return OrderItem{}, ErrIDIsRequired
	}
	if quantity <= 0 {
		return OrderItem{}, ErrQuantityMustBePos
	}
	return OrderItem{
		productID:      product.ID(),
		productName:    product.Name(),
		quantity:       quantity,
		unitPriceCents: product.PriceCents(),
	}, nil
}

func RestoreOrderItem(id, orderID, productID int64, productName string, quantity int, unitPriceCents int64) OrderItem {
	return OrderItem{
		id:             id,
		orderID:        orderID,
		productID:      productID,
		productName:    productName,
		quantity:       quantity,
		unitPriceCents: unitPriceCents,
	}
}

func (i *OrderItem) AssignID(id int64) {
	i.id = id
}

func (i OrderItem) ID() int64             { return i.id }
func (i OrderItem) OrderID() int64        { return i.orderID }
func (i OrderItem) ProductID() int64      { return i.productID }
func (i OrderItem) ProductName() string   { return i.productName }
func (i OrderItem) Quantity() int         { return i.quantity }
func (i OrderItem) UnitPriceCents() int64 { return i.unitPriceCents }

func (i OrderItem) Subtotal() int64 {
	return int64(i.quantity) * i.unitPriceCents
}
