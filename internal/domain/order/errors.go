package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("you do not have access to this order")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrClearForbidden    = errors.New("only admins can clear orders")
	ErrPaymentIntentFail = errors.New("failed to create payment intent")
	ErrOrderNotPaid      = errors.New("order has not been paid")
)
