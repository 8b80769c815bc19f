package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/middleware"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/jwt"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	User       UserHandler
	Company    CompanyHandler
	Invitation InvitationHandler
	Session    SessionHandler
	Order      OrderHandler
	Delivery   DeliveryHandler
	Menu       MenuHandler
	Cart       CartHandler
	Webhook    WebhookHandler
	Health     HealthHandler
}

// Instrumentation is satisfied by metrics.Server; nil disables it
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

func NewRouter(
	cfg config.AppConfig,
	jwtService jwt.Service,
	userService user.UserService,
	metrics Instrumentation,
	h Handlers,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "groupmeal-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	if metrics != nil {
		r.Use(metrics.Middleware)
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	auth := middleware.AuthRequired(jwtService, userService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", h.Health.Check)

		// Public
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/identity", h.Webhook.Identity)
			r.Post("/payments", h.Webhook.Payments)
			r.Post("/delivery", h.Webhook.Delivery)
		})
		r.Get("/invitations/{ref}", h.Invitation.Preview)

		// EventSource cannot send Authorization headers
		r.Group(func(r chi.Router) {
			r.Use(middleware.SSETokenAuth(jwtService, userService))
			r.Use(middleware.RequireCompany)
			r.Get("/sessions/events", h.Session.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(auth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", h.User.Me)
				r.Post("/me/leave", h.User.LeaveCompany)
				r.With(middleware.RequireCompany).Get("/", h.User.ListMembers)
				r.With(middleware.AdminOnly).Put("/{id}/role", h.User.UpdateRole)
			})

			r.Route("/companies", func(r chi.Router) {
				r.Post("/", h.Company.Create)
				r.Get("/my", h.Company.GetMine)
				r.With(middleware.RequirePermission(user.PermissionCompanyManage)).Put("/my", h.Company.UpdateMine)
			})

			r.Post("/invitations/redeem", h.Invitation.Redeem)
			r.With(middleware.RequirePermission(user.PermissionInvitationIssue)).Post("/invitations", h.Invitation.Create)
			r.With(middleware.RequirePermission(user.PermissionInvitationView)).Get("/invitations", h.Invitation.List)
			r.With(middleware.RequirePermission(user.PermissionInvitationIssue)).Delete("/invitations/{ref}", h.Invitation.Delete)

			// Sessions
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCompany)
				r.With(middleware.RequirePermission(user.PermissionSessionCreate)).Post("/sessions", h.Session.Create)
				r.Get("/sessions", h.Session.List)
				r.Get("/sessions/current", h.Session.Current)
				r.Post("/sessions/events/token", h.Session.StreamToken)
				r.Get("/sessions/{id}", h.Session.Get)
				r.With(middleware.RequirePermission(user.PermissionSessionManage)).Patch("/sessions/{id}", h.Session.Update)
				r.With(middleware.RequirePermission(user.PermissionSessionManage)).Delete("/sessions/{id}", h.Session.Delete)
				r.With(middleware.RequirePermission(user.PermissionSessionRespond)).Post("/sessions/{id}/respond", h.Session.Respond)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/checkout", h.Order.Checkout)
				r.Get("/", h.Order.List)
				r.With(middleware.AdminOnly).Delete("/", h.Order.ClearAll)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Order.Get)
					r.Post("/delivery", h.Delivery.Create)
					r.Get("/delivery", h.Delivery.Status)
					r.Post("/delivery/cancel", h.Delivery.Cancel)
				})
			})

			r.Post("/delivery/quote", h.Delivery.Quote)

			r.Route("/menus", func(r chi.Router) {
				r.With(middleware.RequireManager).Post("/scrape", h.Menu.Scrape)
				r.Get("/{placeID}", h.Menu.Get)
				r.Get("/{placeID}/exists", h.Menu.Exists)
			})
			r.Get("/restaurants", h.Menu.ListRestaurants)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.Get)
				r.Delete("/", h.Cart.Clear)
				r.Post("/items", h.Cart.AddItem)
				r.Patch("/items/{itemKey}", h.Cart.UpdateItem)
				r.Delete("/items/{itemKey}", h.Cart.RemoveItem)
			})
		})
	})
	return r
}
