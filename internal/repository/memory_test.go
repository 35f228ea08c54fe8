package repository

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/bestrong/payments/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingTransaction(id string) *models.Transaction {
	return &models.Transaction{
		ID:          id,
		ExternalRef: "BSTRONG-" + id,
		Amount:      decimal.NewFromInt(1500),
		Fee:         decimal.NewFromInt(30),
		Currency:    "XAF",
		PayerPhone:  "675001002",
		Status:      models.TransactionStatusPending,
	}
}

func TestMemoryTransactionRepository_CreateIfAbsent(t *testing.T) {
	repo := NewMemoryTransactionRepository()
	ctx := context.Background()

	first, err := repo.CreateIfAbsent(ctx, pendingTransaction("TX-1"))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	// A second create with the same id must not reset anything
	_, err = repo.TransitionIfPending(ctx, "TX-1", models.TransactionStatusAccepted, nil)
	require.NoError(t, err)

	again, err := repo.CreateIfAbsent(ctx, pendingTransaction("TX-1"))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusAccepted, again.Status)
}

func TestMemoryTransactionRepository_FindByID(t *testing.T) {
	repo := NewMemoryTransactionRepository()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "TX-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.CreateIfAbsent(ctx, pendingTransaction("TX-2"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, "TX-2")
	require.NoError(t, err)
	assert.Equal(t, "TX-2", found.ID)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(1500)))

	// Returned copies must not alias internal state
	found.Status = models.TransactionStatusRefused
	fresh, err := repo.FindByID(ctx, "TX-2")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, fresh.Status)
}

func TestMemoryTransactionRepository_TransitionIfPending(t *testing.T) {
	ctx := context.Background()

	t.Run("wins on a pending transaction", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		_, err := repo.CreateIfAbsent(ctx, pendingTransaction("TX-3"))
		require.NoError(t, err)

		outcome := json.RawMessage(`{"status":"successful"}`)
		result, err := repo.TransitionIfPending(ctx, "TX-3", models.TransactionStatusAccepted, outcome)
		require.NoError(t, err)
		assert.True(t, result.Won)
		assert.Equal(t, models.TransactionStatusAccepted, result.Status)

		stored, err := repo.FindByID(ctx, "TX-3")
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"successful"}`, string(stored.RawOutcome))
	})

	t.Run("loses against an already terminal transaction", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		_, err := repo.CreateIfAbsent(ctx, pendingTransaction("TX-4"))
		require.NoError(t, err)

		first, err := repo.TransitionIfPending(ctx, "TX-4", models.TransactionStatusRefused, nil)
		require.NoError(t, err)
		require.True(t, first.Won)

		second, err := repo.TransitionIfPending(ctx, "TX-4", models.TransactionStatusAccepted, nil)
		require.NoError(t, err)
		assert.False(t, second.Won)
		assert.Equal(t, models.TransactionStatusRefused, second.Status)
	})

	t.Run("rejects non-terminal target status", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		_, err := repo.CreateIfAbsent(ctx, pendingTransaction("TX-5"))
		require.NoError(t, err)

		_, err = repo.TransitionIfPending(ctx, "TX-5", models.TransactionStatusPending, nil)
		assert.ErrorIs(t, err, models.ErrTerminalStatus)
	})

	t.Run("reports unknown transactions", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		_, err := repo.TransitionIfPending(ctx, "TX-ghost", models.TransactionStatusAccepted, nil)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("exactly one winner under contention", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		_, err := repo.CreateIfAbsent(ctx, pendingTransaction("TX-6"))
		require.NoError(t, err)

		const racers = 32
		var wg sync.WaitGroup
		wins := make(chan models.TransactionStatus, racers)

		for i := 0; i < racers; i++ {
			status := models.TransactionStatusAccepted
			if i%2 == 1 {
				status = models.TransactionStatusRefused
			}
			wg.Add(1)
			go func(s models.TransactionStatus) {
				defer wg.Done()
				result, err := repo.TransitionIfPending(ctx, "TX-6", s, nil)
				if err == nil && result.Won {
					wins <- s
				}
			}(status)
		}
		wg.Wait()
		close(wins)

		var winners []models.TransactionStatus
		for s := range wins {
			winners = append(winners, s)
		}
		require.Len(t, winners, 1)

		stored, err := repo.FindByID(ctx, "TX-6")
		require.NoError(t, err)
		assert.Equal(t, winners[0], stored.Status)
	})
}
