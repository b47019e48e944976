// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/travelwallet/travelwallet/internal/handler/dto"
	"github.com/travelwallet/travelwallet/internal/middleware"
	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/money"
	"github.com/travelwallet/travelwallet/internal/service"
	"github.com/travelwallet/travelwallet/internal/settlement"
)

// Handler serves the root and fallback routes.
type Handler struct {
	now func() time.Time
}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{now: time.Now}
}

// HelloResponse is the body of GET /.
type HelloResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Hello reports that the server is up.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HelloResponse{
		Message:   "Server is running smoothly",
		Timestamp: h.now().UTC(),
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, dto.Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.Envelope{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// handleServiceError maps service and domain errors to HTTP responses.
// Unmapped errors are logged with the request id and reported as 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrTourNotFound):
		writeError(w, http.StatusNotFound, "TOUR_NOT_FOUND", "Tour not found")
	case errors.Is(err, service.ErrFriendNotFound):
		writeError(w, http.StatusNotFound, "FRIEND_NOT_FOUND", "Friend not found")
	case errors.Is(err, service.ErrInvalidTourID):
		writeError(w, http.StatusBadRequest, "INVALID_TOUR_ID", "Invalid tour id")
	case errors.Is(err, service.ErrFriendExists):
		writeError(w, http.StatusConflict, "FRIEND_EXISTS", "Friend already on tour")
	case errors.Is(err, service.ErrFriendHasBalance):
		writeError(w, http.StatusConflict, "FRIEND_HAS_BALANCE", err.Error())
	case errors.Is(err, service.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, "VERSION_CONFLICT", "Tour was modified concurrently, retry the request")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "USER_EXISTS", "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, settlement.ErrNoParticipants):
		writeError(w, http.StatusUnprocessableEntity, "NO_PARTICIPANTS", "Tour has no friends to split the expense between")
	case errors.Is(err, settlement.ErrPayerNotFound):
		writeError(w, http.StatusUnprocessableEntity, "PAYER_NOT_FOUND", "Payer is not a friend on this tour")
	case errors.Is(err, settlement.ErrInvalidAmount), errors.Is(err, money.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive value with at most two decimals")
	case errors.Is(err, model.ErrInvalidCost):
		writeError(w, http.StatusBadRequest, "INVALID_COST", "Cost must be an integer")
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.As(err, new(*http.MaxBytesError)):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.Is(err, dto.ErrInvalidJSON):
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
	default:
		logger.Error("internal_error",
			"request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
