package payment

import "errors"

var (
	ErrInvalidSignature    = errors.New("invalid payment webhook signature")
	ErrSignatureExpired    = errors.New("payment webhook timestamp outside tolerance")
	ErrMalformedEvent      = errors.New("malformed payment event")
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrProviderRejected    = errors.New("payment provider rejected the request")
	ErrProviderUnreachable = errors.New("payment provider unavailable")
)
