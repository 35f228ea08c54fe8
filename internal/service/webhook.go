package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bestrong/payments/internal/models"
	"github.com/bestrong/payments/internal/repository"
)

// WebhookService handles the provider's asynchronous push once the
// boundary handler has authenticated it. The push's own claimed status is
// advisory only: the outcome is always re-confirmed with the provider
// before any transition.
type WebhookService struct {
	repo      repository.TransactionRepository
	gateway   GatewayClient
	reconcile *ReconcileService
	logger    *slog.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	repo repository.TransactionRepository,
	gatewayClient GatewayClient,
	reconcile *ReconcileService,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		repo:      repo,
		gateway:   gatewayClient,
		reconcile: reconcile,
		logger:    logger,
	}
}

// Process re-confirms the pushed transaction with the provider and
// reconciles the outcome. A transaction the pipeline has never seen is
// recorded from the provider's confirmed data before reconciling, since
// the provider is authoritative for the charge's existence.
//
// Upstream failures leave the transaction untouched; the provider's own
// webhook retry recovers them.
func (s *WebhookService) Process(ctx context.Context, transactionID string) (models.TransactionStatus, error) {
	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return "", &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to load transaction %s", transactionID),
			Err:     err,
		}
	}

	// Idempotent short-circuit: a processed payment needs no re-check
	if txn != nil && txn.Status == models.TransactionStatusAccepted {
		return txn.Status, nil
	}

	outcome, err := s.gateway.Check(ctx, transactionID)
	if err != nil {
		return "", &ServiceError{
			Code:    ErrCodeUpstream,
			Message: fmt.Sprintf("provider check failed for %s", transactionID),
			Err:     err,
		}
	}

	if txn == nil {
		if _, err := s.repo.CreateIfAbsent(ctx, &models.Transaction{
			ID:          transactionID,
			ExternalRef: outcome.Reference,
			Amount:      outcome.Amount,
			Fee:         outcome.Fee,
			Currency:    outcome.Currency,
			PayerPhone:  outcome.PayerPhone,
			Status:      models.TransactionStatusPending,
		}); err != nil {
			return "", &ServiceError{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("failed to record pushed transaction %s", transactionID),
				Err:     err,
			}
		}
		s.logger.Info("recorded transaction first seen via webhook",
			"transaction_id", transactionID,
			"reference", outcome.Reference,
		)
	}

	return s.reconcile.ApplyOutcome(ctx, transactionID, outcome)
}
