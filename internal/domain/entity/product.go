package entity

// Product is a catalogue entry whose stock is reserved by orders.
type Product struct {
	id         int64
	name       string
	priceCents int64
	stock      int
	category   string
}

func NewProduct(name string, priceCents int64, stock int, category string) (*Product, error) {
	p := &Product{
		name:       name,
		priceCents: priceCents,
		stock:      stock,
		category:   category,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// RestoreProduct rebuilds a persisted product without re-running creation rules.
func RestoreProduct(id int64, name string, priceCents int64, stock int, category string) Product {
	return Product{
		id:         id,
		name:       name,
		priceCents: priceCents,
		stock:      stock,
		category:   category,
	}
}

func (p *Product) Validate() error {
	if p.name == "" {
		return ErrNameIsRequired
	}
	if p.priceCents <= 0 {
		return ErrPriceMustBePos
	}
	if p.stock < 0 {
		return ErrStockMustBePos
	}
	return nil
}

// DecreaseStock reserves qty units. The product is left untouched on error.
func (p *Product) DecreaseStock(qty int) error {
	if qty <= 0 {
		return ErrQuantityMustBePos
	}
	if p.stock < qty {
		return &InsufficientStockError{
			ProductID:   p.id,
			ProductName: p.name,
			Available:   p.stock,
			Requested:   qty,
		}
	}
	p.stock -= qty
	return nil
}

func (p *Product) IncreaseStock(qty int) error {
	if qty <= 0 {
		return ErrQuantityMustBePos
	}
	p.stock += qty
	return nil
}

func (p *Product) AssignID(id int64) {
	p.id = id
}

func (p Product) ID() int64 {
	return p.id
}

func (p Product) Name() string {
	return p.name
}

func (p Product) PriceCents() int64 {
	return p.priceCents
}

func (p Product) Stock() int {
	return p.stock
}

func (p Product) Category() string {
	return p.category
}
