// Package handlers implements HTTP handlers for the payment
// reconciliation API.
package handlers

import (
	"log/slog"

	"github.com/bestrong/payments/internal/service"
)

// Handler bundles the injected services behind the HTTP endpoints
type Handler struct {
	initiation    *service.InitiationService
	webhook       *service.WebhookService
	verifier      service.Verifier
	poller        *service.StatusPoller
	healthChecker service.HealthChecker
	logger        *slog.Logger
	webhookSecret string
}

// NewHandler creates a new Handler with injected service dependencies.
// A nil poller disables the background reconciliation started per charge.
func NewHandler(
	initiation *service.InitiationService,
	webhook *service.WebhookService,
	verifier service.Verifier,
	poller *service.StatusPoller,
	healthChecker service.HealthChecker,
	webhookSecret string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		initiation:    initiation,
		webhook:       webhook,
		verifier:      verifier,
		poller:        poller,
		healthChecker: healthChecker,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}
