// Package httpapi exposes the lottery service as a JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

// writeError maps domain errors onto status codes. Unknown errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, ticket.ErrInvalidEntry),
		errors.Is(err, ticket.ErrNoEntries),
		errors.Is(err, ticket.ErrNoCustomer),
		errors.Is(err, result.ErrInvalidResult):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, lottery.ErrNotAnnounced):
		return http.StatusBadRequest, "results have not been announced yet"
	case errors.Is(err, lottery.ErrPurchaseNotFound):
		return http.StatusNotFound, "purchase not found"
	case errors.Is(err, lottery.ErrDrawClosed):
		return http.StatusConflict, "the draw was closed by another announcement, retry"
	case errors.Is(err, lottery.ErrPredictionDisabled):
		return http.StatusServiceUnavailable, "prediction is not configured"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
