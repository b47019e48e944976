package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/travelwallet/travelwallet/internal/handler/dto"
	"github.com/travelwallet/travelwallet/internal/service"
)

// TourHandler handles HTTP requests for tours, friends and expenses.
type TourHandler struct {
	svc    *service.TourService
	logger *slog.Logger
}

// NewTourHandler creates a new TourHandler.
func NewTourHandler(svc *service.TourService, logger *slog.Logger) *TourHandler {
	return &TourHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/tours.
func (h *TourHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTourRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	input, err := req.Input()
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	tour, err := h.svc.CreateTour(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("tour_created",
		"tour_id", tour.ID,
		"friends", len(tour.Friends),
	)

	writeSuccess(w, http.StatusCreated, "Tour created", dto.CreateTourResponse{
		InsertedID: tour.ID,
		Tour:       tour,
	})
}

// ListByEmail handles GET /api/v1/tours/{email}.
func (h *TourHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	tours, err := h.svc.ListToursByEmail(r.Context(), emailParam(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Tours fetched", tours)
}

// Get handles GET /api/v1/tour/{id}.
func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	tour, err := h.svc.GetTour(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Tour fetched", tour)
}

// Update handles PATCH /api/v1/update-tour/{id}.
func (h *TourHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateTourRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	details, err := req.Details()
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	tour, err := h.svc.UpdateTourFields(r.Context(), id, details)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("tour_updated", "tour_id", id)
	writeSuccess(w, http.StatusOK, "Tour updated successfully", tour)
}

// Delete handles DELETE /api/v1/delete-tour/{id}.
func (h *TourHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteTour(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("tour_deleted", "tour_id", id)
	writeSuccess(w, http.StatusOK, "Tour deleted successfully", nil)
}

// AddFriend handles PATCH /api/v1/tours/{id}/addFriend.
func (h *TourHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.FriendRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	tour, err := h.svc.AddFriend(r.Context(), id, req.Friend())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("friend_added", "tour_id", id, "version", tour.Version)
	writeSuccess(w, http.StatusOK, "Friend added successfully", tour)
}

// RemoveFriend handles DELETE /api/v1/tour/{id}/removeFriend/{email}.
func (h *TourHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tour, err := h.svc.RemoveFriend(r.Context(), id, emailParam(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("friend_removed", "tour_id", id, "version", tour.Version)
	writeSuccess(w, http.StatusOK, "Friend removed successfully", tour)
}

// AddExpense handles PATCH /api/v1/tours/{id}/addExpense.
func (h *TourHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.AddExpenseRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	tour, err := h.svc.AddExpense(r.Context(), id, req.Input())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("expense_added",
		"tour_id", id,
		"amount", req.Amount.String(),
		"version", tour.Version,
	)
	writeSuccess(w, http.StatusOK, "Expense added and balances updated", tour)
}

// Balances handles GET /api/v1/tours/{id}/balances.
func (h *TourHandler) Balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.svc.GetBalances(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Balances fetched", balances)
}

// Activity handles GET /api/v1/tours/{id}/activity?limit=.
func (h *TourHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	events, err := h.svc.ListActivity(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Activity fetched", events)
}

// emailParam returns the decoded {email} route parameter. chi routes on the
// raw path, so an address sent as bob%40x.io arrives still escaped.
func emailParam(r *http.Request) string {
	v := chi.URLParam(r, "email")
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
