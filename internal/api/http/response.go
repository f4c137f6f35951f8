package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/service"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type listResponse struct {
	Items interface{} `json:"items"`
	Total int32       `json:"total"`
	Page  int32       `json:"page"`
	Limit int32       `json:"limit"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch service.ErrorKind(err) {
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "validation", "insufficient_stock", "invalid_transition":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, status, "internal server error")
		return
	}

	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		writeJSON(w, status, envelope{Success: false, Message: err.Error(), Data: stockErr})
		return
	}
	writeMessage(w, status, err.Error())
}
