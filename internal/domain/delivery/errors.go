package delivery

import "errors"

var (
	ErrInvalidAddress      = errors.New("delivery provider rejected the address")
	ErrProviderUnavailable = errors.New("delivery provider unavailable")
	ErrDeliveryNotFound    = errors.New("delivery not found")
	ErrDuplicateDelivery   = errors.New("delivery already exists for this external id")
	ErrNotCancelable       = errors.New("delivery can no longer be cancelled")
	ErrNoDelivery          = errors.New("order has no delivery")
	ErrInvalidSignature    = errors.New("invalid delivery webhook signature")
	ErrPickupNotConfigured = errors.New("pickup location is not configured")
	ErrMalformedEvent      = errors.New("malformed delivery event")
)
