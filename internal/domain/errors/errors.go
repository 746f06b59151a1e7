package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCartMismatch       = errors.New("cart does not match user cart")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrMissingAddress     = errors.New("shipping address is required")
	ErrProductUnavailable = errors.New("product is not sellable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCouponLocked       = errors.New("coupon is being redeemed")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrCouponMinOrder     = errors.New("order total below coupon minimum")
	ErrDraftExpired       = errors.New("checkout draft expired")
	ErrPaymentRequired    = errors.New("order is not paid")
	ErrRetryNotEligible   = errors.New("payment retry not eligible")
	ErrShipmentExists     = errors.New("shipment already exists for item")
	ErrOrderNotReady      = errors.New("order is not ready for fulfillment")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrSchedulerFailure   = errors.New("auto-cancel scheduling failed")
)

// TransitionError reports a rejected state transition with both states attached.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NewTransitionError builds a TransitionError for the attempted change.
func NewTransitionError(from, to string) error {
	return &TransitionError{From: from, To: to}
}
