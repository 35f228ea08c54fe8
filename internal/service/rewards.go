package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bestrong/payments/internal/config"
	"github.com/bestrong/payments/internal/models"
	"github.com/bestrong/payments/internal/repository"
)

// RewardDispatcher applies the side effects of an accepted charge:
// credit the payer, credit the referrer when one is set, and enqueue a
// confirmation notice. It runs exactly once per transaction because only
// the winner of the ACCEPTED transition calls it.
//
// The three effects are best-effort in sequence. The charge itself is
// already settled by the time this runs, so a collaborator failure is
// logged and left to the platform's own retry tooling rather than
// re-opening the transaction.
type RewardDispatcher struct {
	repo     repository.TransactionRepository
	users    UserDirectory
	notifier Notifier
	cfg      config.RewardsConfig
	logger   *slog.Logger
}

// NewRewardDispatcher creates a new RewardDispatcher
func NewRewardDispatcher(
	repo repository.TransactionRepository,
	users UserDirectory,
	notifier Notifier,
	cfg config.RewardsConfig,
	logger *slog.Logger,
) *RewardDispatcher {
	return &RewardDispatcher{
		repo:     repo,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Dispatch credits the payer, then the referrer, then enqueues the
// confirmation notice
func (d *RewardDispatcher) Dispatch(ctx context.Context, transactionID string) {
	txn, err := d.repo.FindByID(ctx, transactionID)
	if err != nil {
		d.logger.Error("reward dispatch: transaction not loadable",
			"transaction_id", transactionID,
			"error", err,
		)
		return
	}

	payer, err := d.users.LookupByPhone(ctx, txn.PayerPhone)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			d.logger.Warn("reward dispatch: no account for payer phone",
				"transaction_id", transactionID,
				"payer_phone", txn.PayerPhone,
			)
			return
		}
		d.logger.Error("reward dispatch: payer lookup failed",
			"transaction_id", transactionID,
			"error", err,
		)
		return
	}

	credits := txn.Amount.Mul(d.cfg.CreditsPerUnit).IntPart()
	summary := models.RewardSummary{
		TransactionID: txn.ID,
		Currency:      txn.Currency,
		Amount:        txn.Amount,
		Credits:       credits,
		Experience:    d.cfg.ExperiencePoints,
	}

	if err := d.users.AddCredits(ctx, payer.ID, credits, d.cfg.ExperiencePoints); err != nil {
		d.logger.Error("reward dispatch: payer credit failed",
			"transaction_id", transactionID,
			"user_id", payer.ID,
			"credits", credits,
			"error", err,
		)
	} else {
		d.logger.Info("payer credited",
			"transaction_id", transactionID,
			"user_id", payer.ID,
			"credits", credits,
		)
	}

	if payer.ReferrerID != "" {
		if err := d.users.AddCredits(ctx, payer.ReferrerID, d.cfg.ReferrerBonusCredits, 0); err != nil {
			d.logger.Error("reward dispatch: referrer bonus failed",
				"transaction_id", transactionID,
				"referrer_id", payer.ReferrerID,
				"error", err,
			)
		} else {
			d.logger.Info("referrer credited",
				"transaction_id", transactionID,
				"referrer_id", payer.ReferrerID,
				"credits", d.cfg.ReferrerBonusCredits,
			)
		}
	}

	if err := d.notifier.PaymentConfirmed(ctx, payer.ID, summary); err != nil {
		d.logger.Error("reward dispatch: confirmation notice failed",
			"transaction_id", transactionID,
			"user_id", payer.ID,
			"error", err,
		)
	}
}
