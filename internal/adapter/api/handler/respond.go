package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/elm042025/sales-dashboard/internal/adapter/api/middleware"
	"github.com/elm042025/sales-dashboard/internal/domain"
)

// errorEnvelope is the body of every non-2xx API response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError maps a domain error kind to its HTTP status and writes
// the error envelope. Unrecognized errors become an opaque 500.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeErrorKind(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrAuth):
		writeErrorKind(w, http.StatusUnauthorized, "auth", err.Error())
	case errors.Is(err, domain.ErrInsertRejected):
		writeErrorKind(w, http.StatusForbidden, "insert_rejected", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeErrorKind(w, http.StatusNotFound, "not_found", err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func writeErrorKind(w http.ResponseWriter, code int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Kind: kind, Message: message}})
}

// NotFound writes the error envelope for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorKind(w, http.StatusNotFound, "not_found", "resource not found")
}

// MethodNotAllowed writes the error envelope for unsupported methods.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorKind(w, http.StatusMethodNotAllowed, "validation", "method not allowed")
}

// decodeJSON bounds and decodes a request body into dst, writing the error
// response itself when the body is oversized or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorKind(w, http.StatusRequestEntityTooLarge, "validation", "request body too large")
			return false
		}
		writeErrorKind(w, http.StatusBadRequest, "validation", "invalid request body")
		return false
	}
	return true
}

// requireSession pulls the route guard's session out of the context.
func requireSession(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeErrorKind(w, http.StatusUnauthorized, "unauthorized", "a signed-in session is required")
		return nil, false
	}
	return session, true
}
