package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bestrong/payments/internal/gateway"
	"github.com/bestrong/payments/internal/models"
	"github.com/bestrong/payments/internal/repository"
)

// ReconcileService is the state-machine core of the pipeline. Both
// delivery channels (webhook and poller) funnel confirmed outcomes
// through ApplyOutcome; the transaction store's conditional transition
// decides which caller wins and therefore runs the reward dispatcher.
type ReconcileService struct {
	repo    repository.TransactionRepository
	rewards *RewardDispatcher
	logger  *slog.Logger
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	repo repository.TransactionRepository,
	rewards *RewardDispatcher,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		repo:    repo,
		rewards: rewards,
		logger:  logger,
	}
}

// ApplyOutcome applies a freshly-confirmed provider outcome to the
// transaction. At most one call per transaction ever wins the transition
// into ACCEPTED, and only that call triggers the reward side effects.
// Losing the race is the expected common case when the webhook and the
// poller land close together, and is a silent success.
func (s *ReconcileService) ApplyOutcome(ctx context.Context, transactionID string, outcome gateway.Outcome) (models.TransactionStatus, error) {
	switch outcome.Status {
	case gateway.OutcomeStillPending:
		// No write; the next poll tick or webhook delivery resolves it
		return models.TransactionStatusPending, nil

	case gateway.OutcomeAccepted:
		result, err := s.repo.TransitionIfPending(ctx, transactionID, models.TransactionStatusAccepted, outcome.Raw)
		if err != nil {
			return "", &ServiceError{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("failed to record accepted outcome for %s", transactionID),
				Err:     err,
			}
		}

		if result.Won {
			s.logger.Info("transaction accepted",
				"transaction_id", transactionID,
				"reference", outcome.Reference,
			)
			s.rewards.Dispatch(ctx, transactionID)
		} else {
			s.logger.Debug("lost transition race",
				"transaction_id", transactionID,
				"current_status", result.Status,
			)
		}
		return result.Status, nil

	case gateway.OutcomeRefused:
		result, err := s.repo.TransitionIfPending(ctx, transactionID, models.TransactionStatusRefused, outcome.Raw)
		if err != nil {
			return "", &ServiceError{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("failed to record refused outcome for %s", transactionID),
				Err:     err,
			}
		}

		if result.Won {
			s.logger.Info("transaction refused", "transaction_id", transactionID)
		}
		return result.Status, nil

	default:
		return "", &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("unknown outcome status %q", outcome.Status),
		}
	}
}
