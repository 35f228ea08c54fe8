// Package repository provides data access implementations for the
// payment reconciliation pipeline.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bestrong/payments/internal/db"
	"github.com/bestrong/payments/internal/models"
	"github.com/shopspring/decimal"
)

// TransitionResult reports the outcome of a conditional status transition.
// Won means this caller performed the write; otherwise Status carries the
// terminal status that was already in place.
type TransitionResult struct {
	Status models.TransactionStatus
	Won    bool
}

// TransactionRepository defines the interface for transaction data access.
// TransitionIfPending is the single atomic primitive the rest of the
// pipeline relies on for exactly-once reward application.
type TransactionRepository interface {
	CreateIfAbsent(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	TransitionIfPending(ctx context.Context, id string, newStatus models.TransactionStatus, rawOutcome json.RawMessage) (TransitionResult, error)
}

// transactionRepository implements TransactionRepository on Postgres
type transactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(database *db.DB) TransactionRepository {
	return &transactionRepository{db: database}
}

const transactionColumns = `id, external_ref, amount, fee, currency, payer_phone, status, raw_outcome, created_at, updated_at`

// CreateIfAbsent inserts a transaction in PENDING state, or returns the
// existing row when the id is already known. Concurrent creators of the
// same id converge on a single row and a single set of fields.
func (r *transactionRepository) CreateIfAbsent(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, external_ref, amount, fee, currency, payer_phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	status := txn.Status
	if status == "" {
		status = models.TransactionStatusPending
	}

	_, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.ExternalRef,
		txn.Amount.String(),
		txn.Fee.String(),
		txn.Currency,
		txn.PayerPhone,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Re-read so concurrent creators all observe the row that won
	return r.FindByID(ctx, txn.ID)
}

// FindByID retrieves a transaction by its provider-assigned id
func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

// TransitionIfPending atomically moves a transaction out of PENDING.
// The WHERE clause on the stored status makes this a linearizable
// compare-and-set per id: exactly one caller ever observes Won for a
// given transition into a terminal state.
func (r *transactionRepository) TransitionIfPending(ctx context.Context, id string, newStatus models.TransactionStatus, rawOutcome json.RawMessage) (TransitionResult, error) {
	if !newStatus.Terminal() {
		return TransitionResult{}, fmt.Errorf("invalid transition target %q: %w", newStatus, models.ErrTerminalStatus)
	}

	query := `
		UPDATE transactions
		SET status = $2, raw_outcome = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, id, newStatus, nullableJSON(rawOutcome), models.TransactionStatusPending)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("failed to transition transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return TransitionResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 1 {
		return TransitionResult{Won: true, Status: newStatus}, nil
	}

	// Lost the race or the id is unknown; report the status that won
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}

	return TransitionResult{Won: false, Status: current.Status}, nil
}

func (r *transactionRepository) scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var txn models.Transaction
	var amountStr, feeStr string
	var rawOutcome sql.NullString

	err := row.Scan(
		&txn.ID,
		&txn.ExternalRef,
		&amountStr,
		&feeStr,
		&txn.Currency,
		&txn.PayerPhone,
		&txn.Status,
		&rawOutcome,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if txn.Amount, err = parseDecimal(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if txn.Fee, err = parseDecimal(feeStr); err != nil {
		return nil, fmt.Errorf("failed to parse fee: %w", err)
	}
	if rawOutcome.Valid {
		txn.RawOutcome = json.RawMessage(rawOutcome.String)
	}

	return &txn, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
