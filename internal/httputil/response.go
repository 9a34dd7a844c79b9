package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/actiond/actiond/pkg/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
// If encoding fails, it logs the error.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", slog.Any("error", err))
	}
}

// WriteError writes a JSON error response with the given status code and message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{
		"error": message,
	})
}

// WriteErrorFrom maps a typed error onto its HTTP status and writes it.
// Unknown error types become a 500 with a generic message so internal
// detail never leaks.
func WriteErrorFrom(w http.ResponseWriter, err error) {
	var (
		notFound      *errors.NotFoundError
		validation    *errors.ValidationError
		dispatch      *errors.DispatchError
		unimplemented *errors.UnimplementedError
	)
	switch {
	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &dispatch):
		WriteError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &unimplemented):
		if unimplemented.MethodNotAllowed {
			WriteError(w, http.StatusMethodNotAllowed, err.Error())
		} else {
			WriteError(w, http.StatusNotImplemented, err.Error())
		}
	default:
		slog.Error("Unhandled error in request", slog.Any("error", err))
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
