package middleware

import (
	"net/http"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

// RequireCompany rejects users who have not joined a company yet
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			response.HandleError(w, user.ErrUnauthenticated)
			return
		}

		if !u.HasCompany() {
			response.HandleError(w, user.ErrCompanyIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
