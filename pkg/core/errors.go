package core

import "errors"

// Ledger and order-book failure taxonomy. Every mutating call either fully
// commits or fails with exactly one of these; callers match with errors.Is.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrAllowanceExceeded     = errors.New("allowance exceeded")
	ErrInvalidRecipient      = errors.New("invalid recipient")
	ErrInvalidAsset          = errors.New("invalid asset")
	ErrInvalidOrderID        = errors.New("invalid order id")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrOrderAlreadyFilled    = errors.New("order already filled")
	ErrOrderAlreadyCancelled = errors.New("order already cancelled")
	ErrOrderNotOpen          = errors.New("order not open")
	ErrUnsupportedOperation  = errors.New("unsupported operation")
)
