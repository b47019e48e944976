package handler

import (
	"log/slog"
	"net/http"

	"github.com/travelwallet/travelwallet/internal/handler/dto"
	"github.com/travelwallet/travelwallet/internal/service"
)

// UserHandler handles registration, login and user search.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/v1/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Register(r.Context(), req.Input())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User registered successfully", user)
}

// Login handles POST /api/v1/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", user)
}

// Search handles GET /api/v1/search-user?name=.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.SearchUsers(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Users fetched", users)
}
