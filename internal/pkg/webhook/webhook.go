package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

var (
	ErrMissingHeaders   = errors.New("missing webhook signature headers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Headers carries the three signing headers of an identity webhook
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// HeadersFromRequest reads webhook-* headers, falling back to svix-* names
func HeadersFromRequest(r *http.Request) Headers {
	get := func(name string) string {
		if v := r.Header.Get("webhook-" + name); v != "" {
			return v
		}
		return r.Header.Get("svix-" + name)
	}
	return Headers{
		ID:        get("id"),
		Timestamp: get("timestamp"),
		Signature: get("signature"),
	}
}

func (h Headers) httpHeader() http.Header {
	hdr := http.Header{}
	hdr.Set("svix-id", h.ID)
	hdr.Set("svix-timestamp", h.Timestamp)
	hdr.Set("svix-signature", h.Signature)
	return hdr
}

// Verifier checks signatures over "id.timestamp.body" with the identity provider's signing secret
type Verifier struct {
	wh *svix.Webhook
}

// NewVerifier accepts the secret with or without the whsec_ prefix
func NewVerifier(secret string) (*Verifier, error) {
	wh, err := svix.NewWebhook(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("decode webhook secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

// Sign returns the v1 signature entry for the given message parts
func (v *Verifier) Sign(id string, ts time.Time, body []byte) (string, error) {
	return v.wh.Sign(id, ts, body)
}

func (v *Verifier) Verify(body []byte, h Headers) error {
	if h.ID == "" || h.Timestamp == "" || h.Signature == "" {
		return ErrMissingHeaders
	}
	if err := v.wh.Verify(body, h.httpHeader()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
