package handlers

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/service"
	"github.com/google/uuid"
)

type RatingHandler struct {
	errorResponder
	ratingService *service.RatingService
}

func NewRatingHandler(ratingService *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		errorResponder: errorResponder{logger: logger},
		ratingService:  ratingService,
	}
}

// SetRatingRequest takes stars as a JSON number so fractional values can be
// rejected with a message instead of a decode failure.
type SetRatingRequest struct {
	Stars *float64 `json:"stars" validate:"required,gte=1,lte=5"`
}

func (h *RatingHandler) Set(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	restaurantID, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	var req SetRatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if *req.Stars != math.Trunc(*req.Stars) {
		verr := &ValidationError{}
		verr.add("stars", "Stars must be an integer")
		h.respondError(w, r, verr)
		return
	}

	rating, err := h.ratingService.SetRating(r.Context(), restaurantID, user.ID, int(*req.Stars))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rating)
}

// Get returns the aggregate; the caller's own rating is included when signed in.
func (h *RatingHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	var userID *uuid.UUID
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = &user.ID
	}

	summary, err := h.ratingService.GetRating(r.Context(), restaurantID, userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
