package service

import (
	"context"
	"testing"

	"github.com/bestrong/payments/internal/gateway"
	"github.com/bestrong/payments/internal/models"
	"github.com/bestrong/payments/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookFixture(t *testing.T, gw *fakeGateway) (*WebhookService, *repository.MemoryTransactionRepository, *fakeUserDirectory) {
	t.Helper()

	repo := repository.NewMemoryTransactionRepository()
	users := newFakeUserDirectory()
	rewards := NewRewardDispatcher(repo, users, &fakeNotifier{}, testRewardsConfig(), testLogger())
	reconcile := NewReconcileService(repo, rewards, testLogger())

	return NewWebhookService(repo, gw, reconcile, testLogger()), repo, users
}

func TestWebhookService_Process(t *testing.T) {
	t.Run("already accepted short-circuits without provider call", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, repo, _ := newWebhookFixture(t, gw)
		seedPendingTransaction(t, repo, "TX-20", "670000020", 1000)

		_, err := repo.TransitionIfPending(context.Background(), "TX-20", models.TransactionStatusAccepted, nil)
		require.NoError(t, err)

		status, err := svc.Process(context.Background(), "TX-20")

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAccepted, status)
		assert.Zero(t, gw.CheckCalls(), "processed payment needs no re-check")
	})

	t.Run("pending transaction is confirmed and settled", func(t *testing.T) {
		gw := &fakeGateway{
			checkFunc: func(_ context.Context, id string) (gateway.Outcome, error) {
				return acceptedOutcome(id), nil
			},
		}
		svc, repo, users := newWebhookFixture(t, gw)
		seedPendingTransaction(t, repo, "TX-21", "670000021", 1000)
		users.addUser(&models.User{ID: "user-21", Phone: "670000021"})

		status, err := svc.Process(context.Background(), "TX-21")

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAccepted, status)
		assert.Equal(t, []int64{1000}, users.creditCalls("user-21"))
	})

	t.Run("unknown transaction is recorded from confirmed data", func(t *testing.T) {
		gw := &fakeGateway{
			checkFunc: func(_ context.Context, id string) (gateway.Outcome, error) {
				outcome := acceptedOutcome(id)
				outcome.Reference = "BSTRONG-push"
				outcome.PayerPhone = "670000022"
				outcome.Currency = "XAF"
				outcome.Amount = decimal.NewFromInt(1500)
				return outcome, nil
			},
		}
		svc, repo, users := newWebhookFixture(t, gw)
		users.addUser(&models.User{ID: "user-22", Phone: "670000022"})

		status, err := svc.Process(context.Background(), "TX-22")

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAccepted, status)

		txn, err := repo.FindByID(context.Background(), "TX-22")
		require.NoError(t, err)
		assert.Equal(t, "BSTRONG-push", txn.ExternalRef)
		assert.Equal(t, "670000022", txn.PayerPhone)
		assert.Equal(t, []int64{1500}, users.creditCalls("user-22"))
	})

	t.Run("upstream failure leaves everything untouched", func(t *testing.T) {
		gw := &fakeGateway{
			checkFunc: func(_ context.Context, _ string) (gateway.Outcome, error) {
				return gateway.Outcome{}, &gateway.UpstreamError{Operation: "verify", Detail: "unreachable"}
			},
		}
		svc, repo, users := newWebhookFixture(t, gw)
		seedPendingTransaction(t, repo, "TX-23", "670000023", 1000)
		users.addUser(&models.User{ID: "user-23", Phone: "670000023"})

		_, err := svc.Process(context.Background(), "TX-23")

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeUpstream, svcErr.Code)

		txn, err := repo.FindByID(context.Background(), "TX-23")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, txn.Status)
		assert.Empty(t, users.creditCalls("user-23"))
	})
}
