package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bestrong/payments/internal/collaborators"
	"github.com/bestrong/payments/internal/config"
	"github.com/bestrong/payments/internal/db"
	"github.com/bestrong/payments/internal/gateway"
	"github.com/bestrong/payments/internal/middleware"
	"github.com/bestrong/payments/internal/repository"
	"github.com/bestrong/payments/internal/service"
	"github.com/gorilla/mux"
)

// NewRouter creates and configures the HTTP router with all routes and
// middleware.
func NewRouter(
	database *db.DB,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	transactionRepo := repository.NewTransactionRepository(database)
	gatewayClient := gateway.NewClient(&cfg.Gateway)
	userStore := collaborators.NewUserStoreClient(&cfg.Collaborators)
	notifier := collaborators.NewNotificationClient(&cfg.Collaborators)

	rewards := service.NewRewardDispatcher(transactionRepo, userStore, notifier, cfg.Rewards, logger)
	reconcile := service.NewReconcileService(transactionRepo, rewards, logger)
	initiation := service.NewInitiationService(gatewayClient, transactionRepo, cfg.Gateway, logger)
	verify := service.NewVerifyService(transactionRepo, gatewayClient, reconcile, logger)
	webhook := service.NewWebhookService(transactionRepo, gatewayClient, reconcile, logger)
	poller := service.NewStatusPoller(verify, service.SystemClock(), cfg.Poller, logger)

	handler := NewHandler(initiation, webhook, verify, poller, database, cfg.Webhook.Secret, logger)

	router := mux.NewRouter()
	router.HandleFunc("/", handler.Root).Methods(http.MethodGet)
	router.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/payments/initiate", handler.Initiate).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/payments/webhook", handler.Webhook).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/payments/verify", handler.Verify).Methods(http.MethodPost)

	var finalHandler http.Handler = router

	idempotencyRepo := repository.NewIdempotencyRepository(database)
	finalHandler = middleware.Idempotency(idempotencyRepo, logger)(finalHandler)
	finalHandler = middleware.RequestLogging(logger)(finalHandler)

	return finalHandler
}
