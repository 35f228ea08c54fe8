package gateway

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OutcomeStatus is the closed set of charge outcomes the provider can
// report. Provider status strings are mapped to this enum at the client
// boundary so downstream code never branches on raw payload values.
type OutcomeStatus string

const (
	OutcomeAccepted     OutcomeStatus = "ACCEPTED"
	OutcomeRefused      OutcomeStatus = "REFUSED"
	OutcomeStillPending OutcomeStatus = "STILL_PENDING"
)

// Outcome is a confirmed charge outcome as reported by the provider's
// verify operation. Raw holds the full provider payload for audit.
type Outcome struct {
	Raw           json.RawMessage
	TransactionID string
	Reference     string
	PayerPhone    string
	Currency      string
	Status        OutcomeStatus
	Amount        decimal.Decimal
	Fee           decimal.Decimal
}

// PendingCharge is the result of a successful charge initiation. The
// caller is responsible for persisting it; initiation writes no local
// state on its own.
type PendingCharge struct {
	TransactionID string
	// Instructions is user-facing payment guidance, typically a USSD
	// code to dial to confirm the charge
	Instructions string
	Amount       decimal.Decimal
	Fee          decimal.Decimal
}
