package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contractfill/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the pipeline error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrUnsupportedDocument):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrExtractionTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, common.ErrExtractionProvider),
		errors.Is(err, common.ErrExtractionParse):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logger.Error("http.error", "status", status, "err", err)
	} else {
		logger.Warn("http.error", "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
