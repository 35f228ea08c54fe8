package models

import "github.com/shopspring/decimal"

// RewardSummary describes what an accepted charge earned the payer. It is
// passed along with the confirmation notice so the platform can name the
// reward to the user.
type RewardSummary struct {
	TransactionID string          `json:"transactionId"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Credits       int64           `json:"credits"`
	Experience    int64           `json:"experience"`
}
