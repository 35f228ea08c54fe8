package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bestrong/payments/internal/models"
)

// MemoryTransactionRepository is a mutex-guarded in-memory implementation
// of TransactionRepository with the same linearizable compare-and-set
// contract as the Postgres implementation. Used in tests and local runs
// without a database.
type MemoryTransactionRepository struct {
	mu           sync.Mutex
	transactions map[string]*models.Transaction
}

// NewMemoryTransactionRepository creates an empty in-memory repository
func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		transactions: make(map[string]*models.Transaction),
	}
}

var _ TransactionRepository = (*MemoryTransactionRepository)(nil)

// CreateIfAbsent stores the transaction unless the id is already known,
// in which case the existing record is returned unchanged.
func (r *MemoryTransactionRepository) CreateIfAbsent(_ context.Context, txn *models.Transaction) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.transactions[txn.ID]; ok {
		return copyTransaction(existing), nil
	}

	stored := copyTransaction(txn)
	if stored.Status == "" {
		stored.Status = models.TransactionStatusPending
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.transactions[txn.ID] = stored

	return copyTransaction(stored), nil
}

// FindByID retrieves a transaction by id
func (r *MemoryTransactionRepository) FindByID(_ context.Context, id string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.transactions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyTransaction(txn), nil
}

// TransitionIfPending performs the conditional status write under the
// repository lock, matching the Postgres CAS semantics.
func (r *MemoryTransactionRepository) TransitionIfPending(_ context.Context, id string, newStatus models.TransactionStatus, rawOutcome json.RawMessage) (TransitionResult, error) {
	if !newStatus.Terminal() {
		return TransitionResult{}, models.ErrTerminalStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.transactions[id]
	if !ok {
		return TransitionResult{}, models.ErrNotFound
	}

	if txn.Status != models.TransactionStatusPending {
		return TransitionResult{Won: false, Status: txn.Status}, nil
	}

	txn.Status = newStatus
	txn.RawOutcome = append(json.RawMessage(nil), rawOutcome...)
	txn.UpdatedAt = time.Now()

	return TransitionResult{Won: true, Status: newStatus}, nil
}

func copyTransaction(txn *models.Transaction) *models.Transaction {
	dup := *txn
	dup.RawOutcome = append(json.RawMessage(nil), txn.RawOutcome...)
	return &dup
}
