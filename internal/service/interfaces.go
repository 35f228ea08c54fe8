package service

import (
	"context"

	"github.com/bestrong/payments/internal/gateway"
	"github.com/bestrong/payments/internal/models"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// GatewayClient is the provider adapter the pipeline depends on
type GatewayClient interface {
	Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.PendingCharge, error)
	Check(ctx context.Context, transactionID string) (gateway.Outcome, error)
}

// UserDirectory exposes the two operations the reward dispatcher needs
// from the platform's user store
type UserDirectory interface {
	LookupByPhone(ctx context.Context, phone string) (*models.User, error)
	AddCredits(ctx context.Context, userID string, credits, experience int64) error
}

// Notifier enqueues user-facing notices with the notification service
type Notifier interface {
	PaymentConfirmed(ctx context.Context, userID string, summary models.RewardSummary) error
}

// Verifier confirms a transaction's outcome with the provider and feeds
// it through the reconciliation engine. Implemented by VerifyService and
// consumed by the status poller.
type Verifier interface {
	Verify(ctx context.Context, transactionID string) (models.TransactionStatus, error)
}

// Ensure concrete types implement interfaces
var (
	_ GatewayClient = (*gateway.Client)(nil)
	_ Verifier      = (*VerifyService)(nil)
)
