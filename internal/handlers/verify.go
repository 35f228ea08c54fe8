package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bestrong/payments/internal/service"
)

type verifyRequest struct {
	TransactionID string `json:"transactionId"`
}

type verifyResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// Verify handles POST /api/v1/payments/verify, the endpoint the status
// poller drives. It runs the same confirm-then-reconcile path as the
// webhook, so whichever channel lands first performs the write.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "invalid request body")
		return
	}
	if req.TransactionID == "" {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "transactionId is required")
		return
	}

	status, err := h.verifier.Verify(r.Context(), req.TransactionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		TransactionID: req.TransactionID,
		Status:        string(status),
	})
}
