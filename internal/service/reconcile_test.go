package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bestrong/payments/internal/models"
	"github.com/bestrong/payments/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileFixture(t *testing.T) (*ReconcileService, *repository.MemoryTransactionRepository, *fakeUserDirectory, *fakeNotifier) {
	t.Helper()

	repo := repository.NewMemoryTransactionRepository()
	users := newFakeUserDirectory()
	notifier := &fakeNotifier{}
	rewards := NewRewardDispatcher(repo, users, notifier, testRewardsConfig(), testLogger())

	return NewReconcileService(repo, rewards, testLogger()), repo, users, notifier
}

func seedPendingTransaction(t *testing.T, repo *repository.MemoryTransactionRepository, id, phone string, amount int64) {
	t.Helper()

	_, err := repo.CreateIfAbsent(context.Background(), &models.Transaction{
		ID:          id,
		ExternalRef: "BSTRONG-test",
		Amount:      decimal.NewFromInt(amount),
		Currency:    "XAF",
		PayerPhone:  phone,
		Status:      models.TransactionStatusPending,
	})
	require.NoError(t, err)
}

func TestReconcileService_ApplyOutcome(t *testing.T) {
	t.Run("accepted outcome credits payer, referrer and notifies once", func(t *testing.T) {
		svc, repo, users, notifier := newReconcileFixture(t)
		seedPendingTransaction(t, repo, "TX-1", "670000001", 1000)
		users.addUser(&models.User{ID: "user-1", Phone: "670000001", ReferrerID: "user-9"})

		status, err := svc.ApplyOutcome(context.Background(), "TX-1", acceptedOutcome("TX-1"))

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAccepted, status)
		assert.Equal(t, []int64{1000}, users.creditCalls("user-1"), "payer credited the charge amount once")
		assert.Equal(t, []int64{1000}, users.creditCalls("user-9"), "referrer gets the fixed bonus once")
		assert.Equal(t, 1, notifier.noticeCount(), "exactly one confirmation notice")

		txn, err := repo.FindByID(context.Background(), "TX-1")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAccepted, txn.Status)
		assert.NotEmpty(t, txn.RawOutcome, "confirmed payload stored for audit")
	})

	t.Run("repeated accepted outcomes credit exactly once", func(t *testing.T) {
		svc, repo, users, notifier := newReconcileFixture(t)
		seedPendingTransaction(t, repo, "TX-2", "670000002", 500)
		users.addUser(&models.User{ID: "user-2", Phone: "670000002"})

		for i := 0; i < 5; i++ {
			status, err := svc.ApplyOutcome(context.Background(), "TX-2", acceptedOutcome("TX-2"))
			require.NoError(t, err)
			assert.Equal(t, models.TransactionStatusAccepted, status)
		}

		assert.Equal(t, []int64{500}, users.creditCalls("user-2"), "one payer credit despite five deliveries")
		assert.Equal(t, 1, notifier.noticeCount())
	})

	t.Run("concurrent accepted outcomes credit exactly once", func(t *testing.T) {
		svc, repo, users, notifier := newReconcileFixture(t)
		seedPendingTransaction(t, repo, "TX-3", "670000003", 1000)
		users.addUser(&models.User{ID: "user-3", Phone: "670000003", ReferrerID: "user-8"})

		// Webhook and poller paths landing at the same logical time
		const callers = 16
		var wg sync.WaitGroup
		wg.Add(callers)
		for i := 0; i < callers; i++ {
			go func() {
				defer wg.Done()
				_, err := svc.ApplyOutcome(context.Background(), "TX-3", acceptedOutcome("TX-3"))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Len(t, users.creditCalls("user-3"), 1, "exactly one payer credit")
		assert.Len(t, users.creditCalls("user-8"), 1, "at most one referrer bonus")
		assert.Equal(t, 1, notifier.noticeCount())
	})

	t.Run("still pending is a no-op", func(t *testing.T) {
		svc, repo, users, notifier := newReconcileFixture(t)
		seedPendingTransaction(t, repo, "TX-4", "670000004", 1000)
		users.addUser(&models.User{ID: "user-4", Phone: "670000004"})

		status, err := svc.ApplyOutcome(context.Background(), "TX-4", pendingOutcome("TX-4"))

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, status)
		assert.Empty(t, users.creditCalls("user-4"))
		assert.Zero(t, notifier.noticeCount())

		txn, err := repo.FindByID(context.Background(), "TX-4")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, txn.Status)
	})

	t.Run("refused outcome settles without rewards", func(t *testing.T) {
		svc, repo, users, notifier := newReconcileFixture(t)
		seedPendingTransaction(t, repo, "TX-5", "670000005", 1000)
		users.addUser(&models.User{ID: "user-5", Phone: "670000005", ReferrerID: "user-7"})

		status, err := svc.ApplyOutcome(context.Background(), "TX-5", refusedOutcome("TX-5"))

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRefused, status)
		assert.Empty(t, users.creditCalls("user-5"))
		assert.Empty(t, users.creditCalls("user-7"))
		assert.Zero(t, notifier.noticeCount())
	})

	t.Run("accepted after refused stays refused", func(t *testing.T) {
		svc, repo, users, _ := newReconcileFixture(t)
		seedPendingTransaction(t, repo, "TX-6", "670000006", 1000)
		users.addUser(&models.User{ID: "user-6", Phone: "670000006"})

		_, err := svc.ApplyOutcome(context.Background(), "TX-6", refusedOutcome("TX-6"))
		require.NoError(t, err)

		status, err := svc.ApplyOutcome(context.Background(), "TX-6", acceptedOutcome("TX-6"))

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRefused, status, "terminal status never changes")
		assert.Empty(t, users.creditCalls("user-6"))
	})

	t.Run("payer without account settles but earns nothing", func(t *testing.T) {
		svc, repo, users, notifier := newReconcileFixture(t)
		seedPendingTransaction(t, repo, "TX-7", "690000000", 1000)

		status, err := svc.ApplyOutcome(context.Background(), "TX-7", acceptedOutcome("TX-7"))

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAccepted, status)
		assert.Empty(t, users.credits)
		assert.Zero(t, notifier.noticeCount())
	})
}

func TestRewardDispatcher_CollaboratorFailureDoesNotReopen(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	users := newFakeUserDirectory()
	users.addErr = assert.AnError
	notifier := &fakeNotifier{}
	rewards := NewRewardDispatcher(repo, users, notifier, testRewardsConfig(), testLogger())
	svc := NewReconcileService(repo, rewards, testLogger())

	seedPendingTransaction(t, repo, "TX-8", "670000008", 1000)
	users.addUser(&models.User{ID: "user-8", Phone: "670000008"})

	status, err := svc.ApplyOutcome(context.Background(), "TX-8", acceptedOutcome("TX-8"))

	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusAccepted, status)

	txn, err := repo.FindByID(context.Background(), "TX-8")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusAccepted, txn.Status, "charge stays settled despite credit failure")
}
