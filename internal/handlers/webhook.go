package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bestrong/payments/internal/service"
)

const webhookSignatureHeader = "X-Webhook-Signature"

type webhookPayload struct {
	TransactionID string `json:"transactionId"`
	SiteID        string `json:"siteId"`
	Status        string `json:"status"`
}

// Webhook handles POST /api/v1/payments/webhook, the provider's
// asynchronous push. The pushed status is advisory; the outcome is
// re-confirmed with the provider before any transition. The response is
// 200 on anything past authentication, including a lost race or an
// upstream failure, so the provider does not amplify into retry storms.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "unreadable request body")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "invalid webhook payload")
		return
	}
	if payload.TransactionID == "" {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "transactionId is required")
		return
	}

	if h.webhookSecret != "" && !h.verifySignature(body, r.Header.Get(webhookSignatureHeader)) {
		h.logger.Warn("webhook signature mismatch",
			"transaction_id", payload.TransactionID,
			"remote_addr", r.RemoteAddr,
		)
		writeError(w, http.StatusUnauthorized, service.ErrCodeAuthenticity, "signature mismatch")
		return
	}

	status, err := h.webhook.Process(r.Context(), payload.TransactionID)
	if err != nil {
		// Still acknowledged: the provider's own redelivery is the
		// retry boundary for everything past authentication
		h.logger.Error("webhook processing failed",
			"transaction_id", payload.TransactionID,
			"error", err,
		)
		writeJSON(w, http.StatusOK, map[string]string{"message": "check deferred, will retry"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "processed",
		"status":  string(status),
	})
}

// verifySignature compares an HMAC-SHA256 over the raw body against the
// hex signature header in constant time
func (h *Handler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body) //nolint:errcheck // hash writes cannot fail
	return hmac.Equal(provided, mac.Sum(nil))
}
