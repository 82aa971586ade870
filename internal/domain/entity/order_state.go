package entity

type OrderState interface {
	Name() string
	Confirm(o *Order) error
	Cancel(o *Order) error
}

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

func stateFromName(name string) (OrderState, error) {
	switch name {
	case StatusPending:
		return &PendingState{}, nil
	case StatusConfirmed:
		return &ConfirmedState{}, nil
	case StatusCancelled:
		return &CancelledState{}, nil
	default:
		return nil, ErrUnknownStatus
	}
}
