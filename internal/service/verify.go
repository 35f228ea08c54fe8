package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bestrong/payments/internal/models"
	"github.com/bestrong/payments/internal/repository"
)

// VerifyService resolves the current status of a known transaction by
// re-confirming with the provider and feeding the outcome through the
// reconciliation engine. It backs both the client-facing verify endpoint
// and the status poller; the webhook path runs the same confirm-then-apply
// sequence.
type VerifyService struct {
	repo      repository.TransactionRepository
	gateway   GatewayClient
	reconcile *ReconcileService
	logger    *slog.Logger
}

// NewVerifyService creates a new VerifyService
func NewVerifyService(
	repo repository.TransactionRepository,
	gatewayClient GatewayClient,
	reconcile *ReconcileService,
	logger *slog.Logger,
) *VerifyService {
	return &VerifyService{
		repo:      repo,
		gateway:   gatewayClient,
		reconcile: reconcile,
		logger:    logger,
	}
}

// Verify returns the transaction's current status. A terminal status is
// returned as-is without a provider call; a pending one is re-confirmed
// and reconciled. A provider failure leaves the transaction pending and
// surfaces as an upstream ServiceError for the caller's retry boundary.
func (s *VerifyService) Verify(ctx context.Context, transactionID string) (models.TransactionStatus, error) {
	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", &ServiceError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("transaction %s not found", transactionID),
				Err:     err,
			}
		}
		return "", &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to load transaction %s", transactionID),
			Err:     err,
		}
	}

	if txn.Status.Terminal() {
		return txn.Status, nil
	}

	outcome, err := s.gateway.Check(ctx, transactionID)
	if err != nil {
		// Transient; the transaction stays PENDING for the next attempt
		return "", &ServiceError{
			Code:    ErrCodeUpstream,
			Message: fmt.Sprintf("provider check failed for %s", transactionID),
			Err:     err,
		}
	}

	return s.reconcile.ApplyOutcome(ctx, transactionID, outcome)
}
