package payments

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader is where the processor puts "t=<unix>,v1=<hex>"
const SignatureHeader = "Payment-Signature"

const Tolerance = 5 * time.Minute

// SignatureVerifier checks HMAC-SHA256 over "t.body" with the shared secret
type SignatureVerifier struct {
	secret string
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Sign builds a header value; used by tests and local replay tooling
func (v *SignatureVerifier) Sign(payload []byte, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, v.secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

// Verify implements payment.Verifier.
func (v *SignatureVerifier) Verify(payload []byte, header string) error {
	err := webhook.ValidatePayloadWithTolerance(payload, header, v.secret, Tolerance)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, webhook.ErrTooOld):
		return fmt.Errorf("%w: %v", payment.ErrSignatureExpired, err)
	default:
		return fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}
}
