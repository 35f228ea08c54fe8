package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bestrong/payments/internal/config"
	"github.com/bestrong/payments/internal/models"
)

// PollOutcome is the poller's verdict on a transaction
type PollOutcome string

const (
	// PollOutcomeTerminal means a terminal status was observed
	PollOutcomeTerminal PollOutcome = "terminal"
	// PollOutcomeExhausted means the attempt or wall-clock budget ran
	// out with the transaction still pending; the user must verify
	// manually and nothing was credited
	PollOutcomeExhausted PollOutcome = "exhausted"
	// PollOutcomeCanceled means the enclosing flow was abandoned
	PollOutcomeCanceled PollOutcome = "canceled"
)

// PollResult reports how a polling run ended
type PollResult struct {
	Status   models.TransactionStatus
	Outcome  PollOutcome
	Attempts int
}

// StatusPoller drives the client side of reconciliation: after a
// successful initiation it repeatedly runs the verify path until the
// transaction is terminal or its budget runs out. The poller never
// credits anything itself; whichever channel's ApplyOutcome call lands
// first performs the write.
type StatusPoller struct {
	verifier Verifier
	clock    Clock
	cfg      config.PollerConfig
	logger   *slog.Logger
}

// NewStatusPoller creates a new StatusPoller
func NewStatusPoller(verifier Verifier, clock Clock, cfg config.PollerConfig, logger *slog.Logger) *StatusPoller {
	return &StatusPoller{
		verifier: verifier,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Poll blocks until the transaction reaches a terminal status, the
// attempt or wall-clock budget is exhausted, or ctx is canceled.
// Upstream failures consume an attempt and the loop carries on; they are
// recovered by the next tick, never retried within one.
func (p *StatusPoller) Poll(ctx context.Context, transactionID string) PollResult {
	deadline := p.clock.Now().Add(p.cfg.MaxWait)
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return PollResult{Outcome: PollOutcomeCanceled, Attempts: attempts}
		case <-p.clock.After(p.cfg.Interval):
		}

		attempts++

		status, err := p.verifier.Verify(ctx, transactionID)
		switch {
		case err == nil && status.Terminal():
			p.logger.Info("polling observed terminal status",
				"transaction_id", transactionID,
				"status", status,
				"attempts", attempts,
			)
			return PollResult{Status: status, Outcome: PollOutcomeTerminal, Attempts: attempts}
		case err != nil:
			var svcErr *ServiceError
			if errors.As(err, &svcErr) && svcErr.Code == ErrCodeNotFound {
				// Nothing to poll for; give up immediately
				p.logger.Warn("polling unknown transaction", "transaction_id", transactionID)
				return PollResult{Outcome: PollOutcomeExhausted, Attempts: attempts}
			}
			p.logger.Debug("poll attempt failed",
				"transaction_id", transactionID,
				"attempt", attempts,
				"error", err,
			)
		}

		if attempts >= p.cfg.MaxAttempts || !p.clock.Now().Before(deadline) {
			p.logger.Info("polling budget exhausted",
				"transaction_id", transactionID,
				"attempts", attempts,
			)
			return PollResult{
				Status:   models.TransactionStatusPending,
				Outcome:  PollOutcomeExhausted,
				Attempts: attempts,
			}
		}
	}
}
