package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bestrong/payments/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // nothing useful to do if write fails
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func extractServiceError(err error) *service.ServiceError {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// writeServiceError maps a service error onto the HTTP taxonomy:
// validation 400, authenticity 401, not-found 404, upstream 502,
// everything else 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	svcErr := extractServiceError(err)
	if svcErr == nil {
		h.logger.Error("unexpected error", "error", err)
		writeError(w, http.StatusInternalServerError, service.ErrCodeInternalError, "internal error")
		return
	}

	switch svcErr.Code {
	case service.ErrCodeValidation:
		writeError(w, http.StatusBadRequest, svcErr.Code, svcErr.Message)
	case service.ErrCodeAuthenticity:
		writeError(w, http.StatusUnauthorized, svcErr.Code, svcErr.Message)
	case service.ErrCodeNotFound:
		writeError(w, http.StatusNotFound, svcErr.Code, svcErr.Message)
	case service.ErrCodeUpstream:
		writeError(w, http.StatusBadGateway, svcErr.Code, svcErr.Message)
	default:
		h.logger.Error("service error", "code", svcErr.Code, "error", err)
		writeError(w, http.StatusInternalServerError, svcErr.Code, "internal error")
	}
}
