package doordash

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenVersion  = "DD-JWT-V1"
	tokenAudience = "doordash"
	tokenTTL      = 30 * time.Minute
	// refresh a little before the provider would reject the token
	tokenRefreshSkew = time.Minute
)

// TokenSource signs provider tokens and reuses them until shortly before expiry
type TokenSource struct {
	developerID string
	keyID       string
	secret      []byte
	now         func() time.Time

	mu      sync.Mutex
	cached  string
	expires time.Time
}

// NewTokenSource decodes the base64url signing secret
func NewTokenSource(developerID, keyID, signingSecret string) (*TokenSource, error) {
	secret, err := decodeSecret(signingSecret)
	if err != nil {
		return nil, fmt.Errorf("decode delivery signing secret: %w", err)
	}
	return &TokenSource{
		developerID: developerID,
		keyID:       keyID,
		secret:      secret,
		now:         time.Now,
	}, nil
}

func decodeSecret(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// Token returns a valid signed token
func (t *TokenSource) Token() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.cached != "" && now.Add(tokenRefreshSkew).Before(t.expires) {
		return t.cached, nil
	}

	exp := now.Add(tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": tokenAudience,
		"iss": t.developerID,
		"kid": t.keyID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	token.Header["kid"] = t.keyID
	token.Header["dd-ver"] = tokenVersion

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign delivery token: %w", err)
	}

	t.cached = signed
	t.expires = exp
	return signed, nil
}
