package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/repchain/repchain/internal/fault"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Preconditions are
// ordinary rejections and share 400 with validation; the code field keeps
// them distinguishable for clients.
func writeError(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch kind {
	case fault.KindValidation, fault.KindPrecondition:
		status = http.StatusBadRequest
		msg = err.Error()
	case fault.KindAuthorization:
		status = http.StatusForbidden
		msg = err.Error()
	case fault.KindNotFound:
		status = http.StatusNotFound
		msg = err.Error()
	case fault.KindExternal:
		status = http.StatusBadGateway
		msg = err.Error()
	default:
		logger.Error("request failed", slog.Any("err", err))
	}

	writeJSON(w, errorResponse{Error: msg, Code: kind.String()}, status)
}
