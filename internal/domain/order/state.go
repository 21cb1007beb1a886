package order

import "fmt"

// State implements the state pattern for the order payment lifecycle.
type State interface {
	Status() Status
	OnPaymentInitiated(o *Order) (State, error)
	OnPaymentSettled(o *Order) (State, error)
	OnPaymentDeclined(o *Order) (State, error)
}

func stateFor(s Status) (State, error) {
	switch s {
	case StatusCreated:
		return createdState{}, nil
	case StatusPaymentPending:
		return paymentPendingState{}, nil
	case StatusPaymentSettled:
		return paymentSettledState{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStateTransition, s)
	}
}

type createdState struct{}

func (createdState) Status() Status { return StatusCreated }

func (createdState) OnPaymentInitiated(*Order) (State, error) {
	return paymentPendingState{}, nil
}

func (createdState) OnPaymentSettled(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (createdState) OnPaymentDeclined(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

type paymentPendingState struct{}

func (paymentPendingState) Status() Status { return StatusPaymentPending }

func (paymentPendingState) OnPaymentInitiated(*Order) (State, error) {
	return paymentPendingState{}, nil
}

func (paymentPendingState) OnPaymentSettled(*Order) (State, error) {
	return paymentSettledState{}, nil
}

// A declined attempt keeps the order open for a new payment.
func (paymentPendingState) OnPaymentDeclined(*Order) (State, error) {
	return paymentPendingState{}, nil
}

type paymentSettledState struct{}

func (paymentSettledState) Status() Status { return StatusPaymentSettled }

func (paymentSettledState) OnPaymentInitiated(*Order) (State, error) {
	return nil, ErrAlreadySettled
}

func (paymentSettledState) OnPaymentSettled(*Order) (State, error) {
	return paymentSettledState{}, nil
}

func (paymentSettledState) OnPaymentDeclined(*Order) (State, error) {
	return paymentSettledState{}, nil
}
