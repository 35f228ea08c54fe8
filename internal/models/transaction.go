package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a charge
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusAccepted TransactionStatus = "ACCEPTED"
	TransactionStatusRefused  TransactionStatus = "REFUSED"
)

// Terminal reports whether no further status transition is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusAccepted || s == TransactionStatusRefused
}

// Transaction tracks one mobile-money charge through the gateway lifecycle.
//
// The ID is assigned by the payment provider and is the only key the
// reconciliation pipeline operates on. Status transitions are monotonic:
// PENDING -> ACCEPTED or PENDING -> REFUSED, terminal once set.
type Transaction struct {
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	RawOutcome  json.RawMessage   `db:"raw_outcome"`
	ID          string            `db:"id"`
	ExternalRef string            `db:"external_ref"`
	Currency    string            `db:"currency"`
	PayerPhone  string            `db:"payer_phone"`
	Status      TransactionStatus `db:"status"`
	Amount      decimal.Decimal   `db:"amount"`
	Fee         decimal.Decimal   `db:"fee"`
}

// IdempotencyKey tracks processed initiate requests to prevent duplicate charges
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at"`
	Key            string    `db:"key"`
	RequestPath    string    `db:"request_path"`
	ResponseBody   string    `db:"response_body"`
	ResponseStatus int       `db:"response_status"`
}
