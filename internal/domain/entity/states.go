package entity

type PendingState struct{}

func (s *PendingState) Name() string { return StatusPending }

func (s *PendingState) Confirm(o *Order) error {
	if len(o.items) == 0 {
		return ErrOrderHasNoItems
	}
	o.TransitionTo(&ConfirmedState{})
	return nil
}

func (s *PendingState) Cancel(o *Order) error {
	o.TransitionTo(&CancelledState{})
	return nil
}

type ConfirmedState struct{}

func (s *ConfirmedState) Name() string { return StatusConfirmed }

func (s *ConfirmedState) Confirm(o *Order) error {
	return ErrInvalidStateTransition
}

func (s *ConfirmedState) Cancel(o *Order) error {
	o.TransitionTo(&CancelledState{})
	return nil
}

type CancelledState struct{}

func (s *CancelledState) Name() string           { return StatusCancelled }
func (s *CancelledState) Confirm(o *Order) error { return ErrInvalidStateTransition }
func (s *CancelledState) Cancel(o *Order) error  { return ErrInvalidStateTransition }
