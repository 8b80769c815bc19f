package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	tokenTypeSSE = "sse"
	sseTokenTTL  = 5 * time.Minute
)

var ErrMissingSubject = errors.New("token has no subject")

// Service verifies identity-provider bearer tokens and issues short-lived SSE tokens
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	// ProfileFromClaims maps verified claims onto an identity profile
	ProfileFromClaims(claims map[string]interface{}) (user.IdentityProfile, error)
	// GenerateToken signs a token shaped like the provider's; used by local tooling and tests
	GenerateToken(profile user.IdentityProfile, ttl time.Duration) (string, error)
	GenerateSSEToken(externalID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (externalID string, err error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) ProfileFromClaims(claims map[string]interface{}) (user.IdentityProfile, error) {
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return user.IdentityProfile{}, ErrMissingSubject
	}

	if t, _ := claims["type"].(string); t == tokenTypeSSE {
		return user.IdentityProfile{}, fmt.Errorf("sse token used as bearer token")
	}

	profile := user.IdentityProfile{ExternalID: sub}
	profile.Email, _ = claims["email"].(string)
	profile.DisplayName, _ = claims["name"].(string)

	// Role hint from public metadata; only honoured when provisioning a new user
	if meta, ok := claims["public_metadata"].(map[string]interface{}); ok {
		if r, ok := meta["role"].(string); ok {
			if role, ok := user.ParseRole(r); ok {
				profile.Role = &role
			}
		}
	}

	return profile, nil
}

func (j *JWTService) GenerateToken(profile user.IdentityProfile, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := map[string]interface{}{
		"sub":   profile.ExternalID,
		"email": profile.Email,
		"name":  profile.DisplayName,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if profile.Role != nil {
		claims["public_metadata"] = map[string]interface{}{"role": string(*profile.Role)}
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, err
}

// GenerateSSEToken issues a token for EventSource connections, which cannot send headers
func (j *JWTService) GenerateSSEToken(externalID string) (token string, expiresIn int, err error) {
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"sub":  externalID,
		"type": tokenTypeSSE,
		"exp":  time.Now().Add(sseTokenTTL).Unix(),
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (externalID string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != tokenTypeSSE {
		return "", jwt.ErrInvalidJWT()
	}

	if token.Subject() == "" {
		return "", ErrMissingSubject
	}

	return token.Subject(), nil
}
