package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bestrong/payments/internal/gateway"
	"github.com/bestrong/payments/internal/service"
	"github.com/shopspring/decimal"
)

type initiateRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Phone        string          `json:"phone"`
	Currency     string          `json:"currency"`
	Country      string          `json:"country"`
	Reference    string          `json:"reference"`
	OperatorHint string          `json:"operatorHint"`
}

type initiateResponse struct {
	TransactionID string          `json:"transactionId"`
	Instructions  string          `json:"instructions"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
}

// Initiate handles POST /api/v1/payments/initiate
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "invalid request body")
		return
	}

	txn, charge, err := h.initiation.Initiate(r.Context(), service.InitiateInput{
		Amount:       req.Amount,
		Phone:        req.Phone,
		Currency:     req.Currency,
		Country:      req.Country,
		Reference:    req.Reference,
		OperatorHint: req.OperatorHint,
	})
	if err != nil {
		// An upstream failure during initiation is the caller's problem
		// to retry, not a gateway timeout to wait out
		var upstreamErr *gateway.UpstreamError
		if errors.As(err, &upstreamErr) {
			h.logger.Error("charge initiation failed upstream", "error", err)
			writeError(w, http.StatusInternalServerError, service.ErrCodeUpstream, "charge initiation failed")
			return
		}
		h.writeServiceError(w, err)
		return
	}

	// Poll in the background so the charge still settles when the
	// webhook never arrives. Outlives the request on purpose.
	if h.poller != nil {
		go h.poller.Poll(context.Background(), txn.ID)
	}

	writeJSON(w, http.StatusCreated, initiateResponse{
		TransactionID: txn.ID,
		Instructions:  charge.Instructions,
		Amount:        txn.Amount,
		Fee:           txn.Fee,
	})
}
