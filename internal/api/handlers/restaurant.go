package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/Athul-13/tablespot-api/internal/service"
)

type RestaurantHandler struct {
	errorResponder
	restaurantService *service.RestaurantService
}

func NewRestaurantHandler(restaurantService *service.RestaurantService, logger *slog.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		errorResponder:    errorResponder{logger: logger},
		restaurantService: restaurantService,
	}
}

type CreateRestaurantRequest struct {
	Name        string  `json:"name" validate:"required"`
	FullAddress string  `json:"fullAddress" validate:"required"`
	Phone       string  `json:"phone" validate:"required"`
	CuisineType string  `json:"cuisineType" validate:"required"`
	ImageURL    *string `json:"imageUrl" validate:"omitnil,url"`
}

func (r *CreateRestaurantRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.FullAddress = strings.TrimSpace(r.FullAddress)
	r.Phone = strings.TrimSpace(r.Phone)
	r.CuisineType = strings.TrimSpace(r.CuisineType)
}

// nullableString tells an absent field apart from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type UpdateRestaurantRequest struct {
	Name        *string        `json:"name" validate:"omitnil,min=1"`
	FullAddress *string        `json:"fullAddress" validate:"omitnil,min=1"`
	Phone       *string        `json:"phone" validate:"omitnil,min=1"`
	CuisineType *string        `json:"cuisineType" validate:"omitnil,min=1"`
	ImageURL    nullableString `json:"imageUrl" validate:"-"`
}

func (r *UpdateRestaurantRequest) normalize() {
	for _, field := range []*string{r.Name, r.FullAddress, r.Phone, r.CuisineType} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
}

func (r *UpdateRestaurantRequest) update() repository.RestaurantUpdate {
	update := repository.RestaurantUpdate{
		Name:        r.Name,
		FullAddress: r.FullAddress,
		Phone:       r.Phone,
		CuisineType: r.CuisineType,
	}
	if r.ImageURL.Set {
		update.ImageURL = &r.ImageURL.Value
	}
	return update
}

func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.ListRestaurantsFilter{
		CuisineType: strings.TrimSpace(query.Get("cuisineType")),
	}
	if limit, ok := parseCount(query.Get("limit")); ok {
		filter.Limit = limit
	}
	if offset, ok := parseCount(query.Get("offset")); ok {
		filter.Offset = offset
	}

	restaurants, err := h.restaurantService.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, restaurants)
}

// parseCount accepts only plain decimal digits; anything else is ignored by the caller.
func parseCount(s string) (int, bool) {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < '0' || r > '9' }) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req CreateRestaurantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	restaurant, err := h.restaurantService.Create(r.Context(), service.CreateRestaurantInput{
		Name:        req.Name,
		FullAddress: req.FullAddress,
		Phone:       req.Phone,
		CuisineType: req.CuisineType,
		ImageURL:    req.ImageURL,
	}, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, restaurant)
}

func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	restaurant, err := h.restaurantService.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if restaurant == nil {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}

func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	id, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	var req UpdateRestaurantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.ImageURL.Value != nil {
		if err := validate.Var(*req.ImageURL.Value, "url"); err != nil {
			verr := &ValidationError{}
			verr.add("imageUrl", "Invalid image url")
			h.respondError(w, r, verr)
			return
		}
	}

	restaurant, err := h.restaurantService.Update(r.Context(), id, req.update(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}

func (h *RestaurantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	id, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	if err := h.restaurantService.Delete(r.Context(), id, user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
