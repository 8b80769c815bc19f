package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/jwt"
)

type userKey struct{}

// WithUser stores the authenticated local user on ctx
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey{}).(user.User)
	return u, ok
}

// AuthRequired expects jwtauth.Verifier to have run. It resolves the token subject to a local user,
// provisioning one when the identity webhook has not arrived yet.
func AuthRequired(jwtService jwt.Service, users user.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, user.ErrUnauthenticated)
				return
			}

			profile, err := jwtService.ProfileFromClaims(claims)
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			u, err := users.Authenticate(r.Context(), profile)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		}
		return http.HandlerFunc(hfn)
	}
}

// SSETokenAuth authenticates EventSource requests, which cannot send headers, by a ?token= query param
func SSETokenAuth(jwtService jwt.Service, users user.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if token == "" {
				response.HandleError(w, user.ErrUnauthenticated)
				return
			}

			externalID, err := jwtService.ValidateSSEToken(token)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired stream token")
				return
			}

			u, err := users.Authenticate(r.Context(), user.IdentityProfile{ExternalID: externalID})
			if err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
