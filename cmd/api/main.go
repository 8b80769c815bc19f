package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/cart"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	appHTTP "github.com/groupmeal/groupmeal-backend/internal/handler/http"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/cron"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/doordash"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/jwt"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/kafka"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/metrics"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/partner"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/payments"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/scraper"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/sse"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/webhook"
	"github.com/groupmeal/groupmeal-backend/internal/repository/memory"
	"github.com/groupmeal/groupmeal-backend/internal/repository/postgresql"
	"github.com/groupmeal/groupmeal-backend/internal/repository/rediscache"
	cartService "github.com/groupmeal/groupmeal-backend/internal/service/cart"
	companyService "github.com/groupmeal/groupmeal-backend/internal/service/company"
	deliveryService "github.com/groupmeal/groupmeal-backend/internal/service/delivery"
	invitationService "github.com/groupmeal/groupmeal-backend/internal/service/invitation"
	menuService "github.com/groupmeal/groupmeal-backend/internal/service/menu"
	orderService "github.com/groupmeal/groupmeal-backend/internal/service/order"
	paymentService "github.com/groupmeal/groupmeal-backend/internal/service/payment"
	sessionService "github.com/groupmeal/groupmeal-backend/internal/service/session"
	userService "github.com/groupmeal/groupmeal-backend/internal/service/user"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.App.LogLevel)})))

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ephemeral groups the short-lived stores that live in Redis or, when disabled, in process memory
type ephemeral struct {
	kv       cart.KV
	menus    menu.Cache
	statuses delivery.StatusCache
	deduper  payment.EventDeduper
	ping     appHTTP.HealthCheck
	close    func() error
}

func newEphemeral(cfg config.RedisConfig) (ephemeral, error) {
	if !cfg.Enable {
		slog.Warn("Redis disabled; carts and caches are kept in process memory")
		store := memory.NewStore()
		return ephemeral{
			kv:       store,
			menus:    memory.NewMenuCache(store),
			statuses: memory.NewDeliveryStatusCache(store, rediscache.DeliveryStatusTTL),
			deduper:  memory.NewEventDeduper(store, rediscache.EventDedupeTTL),
			close:    func() error { return nil },
		}, nil
	}

	client, err := database.NewRedisClient(cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return ephemeral{}, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return ephemeral{
		kv:       rediscache.NewKV(client),
		menus:    rediscache.NewMenuCache(client),
		statuses: rediscache.NewDeliveryStatusCache(client),
		deduper:  rediscache.NewEventDeduper(client),
		ping:     func(ctx context.Context) error { return client.Ping(ctx).Err() },
		close:    client.Close,
	}, nil
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eph, err := newEphemeral(cfg.Redis)
	if err != nil {
		return err
	}
	defer eph.close()

	// Repositories
	txRunner := postgresql.NewTxRunner(db)
	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	invitationRepo := postgresql.NewInvitationRepository(db)
	sessionRepo := postgresql.NewSessionRepository(db)
	participantRepo := postgresql.NewParticipantRepository(db)
	orderRepo := postgresql.NewOrderRepository(db)
	intentRepo := postgresql.NewPaymentIntentRepository(db)
	disputeRepo := postgresql.NewDisputeRepository(db)
	outboxRepo := postgresql.NewDeliveryIntentRepository(db)
	restaurantRepo := postgresql.NewRestaurantRepository(db)

	// Providers
	jwtService := jwt.NewJWTService(cfg.Identity.JWTSecret)
	identityVerifier, err := webhook.NewVerifier(cfg.Identity.WebhookSecret)
	if err != nil {
		return fmt.Errorf("invalid identity webhook secret: %w", err)
	}
	paymentClient := payments.NewClient(cfg.Payment)
	deliveryClient, err := doordash.NewClient(cfg.Delivery)
	if err != nil {
		return fmt.Errorf("failed to build delivery client: %w", err)
	}
	var deliveryVerifier delivery.WebhookVerifier
	if cfg.Delivery.WebhookSecret != "" {
		deliveryVerifier = doordash.NewWebhookVerifier(cfg.Delivery.WebhookSecret)
	} else {
		slog.Warn("DELIVERY_WEBHOOK_SECRET not set; delivery callbacks are accepted unsigned")
	}
	menuScraper := scraper.New(cfg.Menu.ScrapeUserAgent, cfg.Menu.ScrapeTimeout)
	menuPartner := partner.NewClient(ctx, cfg.Menu)
	hub := sse.NewHub()

	// Services
	users := userService.NewUserService(userRepo, companyRepo)
	companies := companyService.NewCompanyService(txRunner, companyRepo, userRepo)
	invitations := invitationService.NewInvitationService(
		txRunner,
		invitationRepo,
		companyRepo,
		userRepo,
		invitationService.NewSequenceCodeGenerator(invitationRepo),
	)
	sessions := sessionService.NewSessionService(txRunner, sessionRepo, participantRepo, userRepo, hub)
	orders := orderService.NewOrderService(txRunner, orderRepo, intentRepo, paymentClient, cfg.Checkout, cfg.Payment.Currency)
	deliveries := deliveryService.NewDeliveryService(orderRepo, deliveryClient, eph.statuses, deliveryVerifier, cfg.Delivery)
	reconciler := paymentService.NewReconcilerService(txRunner, orderRepo, intentRepo, disputeRepo, outboxRepo, payments.NewSignatureVerifier(cfg.Payment.WebhookSecret), eph.deduper)
	menus := menuService.NewMenuService(restaurantRepo, eph.menus, menuScraper, menuPartner, cfg.Menu.CacheTTL)
	carts := cartService.NewCartService(eph.kv)

	// Delivery intents: Kafka when brokers are configured, otherwise dispatched in-process
	dispatch := kafka.DeliveryDispatcher(deliveries)
	var publisher delivery.IntentPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DeliveryIntentTopic)
		defer producer.Close()
		publisher = producer

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.DeliveryIntentTopic, 4)
		go func() {
			if err := consumer.Start(ctx, dispatch); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("delivery intent consumer stopped", "error", err)
			}
		}()
	} else {
		slog.Warn("KAFKA_BROKERS not set; delivery intents are dispatched in-process")
		publisher = kafka.NewInlinePublisher(dispatch)
	}
	relay := deliveryService.NewOutboxRelay(txRunner, outboxRepo, publisher)

	// Metrics
	metricsServer := metrics.NewServer(cfg.Metrics)
	if err := metricsServer.RegisterGauge("sse_subscribers", "Open session event streams.", func() float64 {
		return float64(hub.TotalSubscribers())
	}); err != nil {
		return err
	}
	if err := metricsServer.RegisterGauge("sse_dropped_events", "Session events dropped for slow subscribers.", func() float64 {
		return float64(hub.Dropped())
	}); err != nil {
		return err
	}
	if err := metricsServer.Start(); err != nil {
		return err
	}

	// Background jobs
	scheduler := cron.NewScheduler()
	scheduler.SetObserver(metricsServer.ObserveJob)
	scheduler.AddJob("outbox_relay", cfg.Session.OutboxInterval, cron.OutboxRelayJob(relay), cron.WithTimeout(time.Minute))
	if cfg.Session.AutoTransition {
		scheduler.AddJob("session_transitions", cfg.Session.TransitionInterval, cron.SessionTransitionJob(sessions, time.Now), cron.WithTimeout(30*time.Second))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP
	checks := map[string]appHTTP.HealthCheck{"db": db.Ping}
	if eph.ping != nil {
		checks["redis"] = eph.ping
	}
	router := appHTTP.NewRouter(cfg.App, jwtService, users, metricsServer, appHTTP.Handlers{
		User:       appHTTP.NewUserHandler(users),
		Company:    appHTTP.NewCompanyHandler(companies),
		Invitation: appHTTP.NewInvitationHandler(invitations),
		Session:    appHTTP.NewSessionHandler(sessions, jwtService, hub),
		Order:      appHTTP.NewOrderHandler(orders),
		Delivery:   appHTTP.NewDeliveryHandler(deliveries),
		Menu:       appHTTP.NewMenuHandler(menus),
		Cart:       appHTTP.NewCartHandler(carts),
		Webhook:    appHTTP.NewWebhookHandler(identityVerifier, users, reconciler, deliveries, metricsServer),
		Health:     appHTTP.NewHealthHandler(checks),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "address", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		slog.Error("Metrics shutdown failed", "error", err)
	}
	return nil
}
