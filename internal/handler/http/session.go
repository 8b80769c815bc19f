package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/jwt"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/sse"
)

const streamKeepalive = 30 * time.Second

type SessionHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Current(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Respond(w http.ResponseWriter, r *http.Request)

	// StreamToken issues the token EventSource clients pass as ?token=
	StreamToken(w http.ResponseWriter, r *http.Request)
	// Stream pushes session events for the caller's company
	Stream(w http.ResponseWriter, r *http.Request)
}

type sessionHandlerImpl struct {
	sessionService session.SessionService
	jwtService     jwt.Service
	hub            *sse.Hub
}

func NewSessionHandler(sessionService session.SessionService, jwtService jwt.Service, hub *sse.Hub) SessionHandler {
	return &sessionHandlerImpl{
		sessionService: sessionService,
		jwtService:     jwtService,
		hub:            hub,
	}
}

func (h *sessionHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req session.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.sessionService.Create(r.Context(), u, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Order session created", result)
}

func (h *sessionHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var filter session.ListFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := session.ParseStatus(raw)
		if !ok {
			response.BadRequest(w, "Invalid status filter", map[string]string{"status": "must be one of upcoming, active, closed"})
			return
		}
		filter.Status = &st
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.BadRequest(w, "Invalid limit", map[string]string{"limit": "must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	results, err := h.sessionService.List(r.Context(), u, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func (h *sessionHandlerImpl) Current(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.sessionService.GetCurrent(r.Context(), u)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *sessionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.sessionService.GetByID(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *sessionHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req session.UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.sessionService.Update(r.Context(), u, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Order session updated", result)
}

func (h *sessionHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.sessionService.Delete(r.Context(), u, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Order session deleted", nil)
}

func (h *sessionHandlerImpl) Respond(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req session.RespondRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.sessionService.Respond(r.Context(), u, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Response recorded", result)
}

func (h *sessionHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(u.ExternalID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, session.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

func (h *sessionHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !u.HasCompany() {
		response.HandleError(w, user.ErrCompanyIDRequired)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	companyID := *u.CompanyID
	events, cleanup := h.hub.Subscribe(companyID, u.ID)
	defer cleanup()

	slog.Debug("session stream opened", "user_id", u.ID, "company_id", companyID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"company_id\":%q}\n\n", companyID)
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
