package middleware

import (
	"net/http"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			response.HandleError(w, user.ErrUnauthenticated)
			return
		}

		if !u.IsAdmin() {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
