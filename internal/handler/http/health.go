package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type HealthHandler interface {
	Check(w http.ResponseWriter, r *http.Request)
}

type healthHandlerImpl struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) HealthHandler {
	return &healthHandlerImpl{checks: checks}
}

// Check answers 503 when any dependency is down
func (h *healthHandlerImpl) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	result := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			result.Status = "degraded"
			result.Checks[name] = err.Error()
			continue
		}
		result.Checks[name] = "ok"
	}

	if result.Status != "ok" {
		response.ServiceUnavailable(w, "One or more dependencies are unavailable", result.Checks)
		return
	}
	response.Success(w, result)
}
