package http

import (
	"encoding/json"
	"net/http"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/middleware"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

// currentUser writes a 401 when the auth middleware did not run
func currentUser(w http.ResponseWriter, r *http.Request) (user.User, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrUnauthenticated)
		return user.User{}, false
	}
	return u, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}
