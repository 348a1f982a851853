package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/google/uuid"
)

type RestaurantService struct {
	restaurantRepo repository.RestaurantRepository
	ratingRepo     repository.RatingRepository
	ratings        *ratingAggregates
}

func NewRestaurantService(restaurantRepo repository.RestaurantRepository, ratingRepo repository.RatingRepository, cache RatingCache, logger *slog.Logger) *RestaurantService {
	return &RestaurantService{
		restaurantRepo: restaurantRepo,
		ratingRepo:     ratingRepo,
		ratings:        newRatingAggregates(ratingRepo, cache, logger),
	}
}

type CreateRestaurantInput struct {
	Name        string
	FullAddress string
	Phone       string
	CuisineType string
	ImageURL    *string
}

func (s *RestaurantService) Create(ctx context.Context, input CreateRestaurantInput, userID uuid.UUID) (*domain.Restaurant, error) {
	restaurant := &domain.Restaurant{
		Name:            strings.TrimSpace(input.Name),
		FullAddress:     strings.TrimSpace(input.FullAddress),
		Phone:           strings.TrimSpace(input.Phone),
		CuisineType:     strings.TrimSpace(input.CuisineType),
		ImageURL:        input.ImageURL,
		CreatedByUserID: userID,
	}
	if err := s.restaurantRepo.Create(ctx, restaurant); err != nil {
		return nil, err
	}
	return restaurant, nil
}

// GetByID returns the restaurant with its average rating, or nil if it does not exist.
func (s *RestaurantService) GetByID(ctx context.Context, id uuid.UUID) (*domain.RestaurantWithRating, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil || restaurant == nil {
		return nil, err
	}

	agg, err := s.ratings.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.RestaurantWithRating{Restaurant: *restaurant, AverageRating: agg.Average}, nil
}

// List returns restaurants newest first, each with its average rating.
func (s *RestaurantService) List(ctx context.Context, filter repository.ListRestaurantsFilter) ([]*domain.RestaurantWithRating, error) {
	restaurants, err := s.restaurantRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(restaurants))
	for i, r := range restaurants {
		ids[i] = r.ID
	}
	averages, err := s.ratingRepo.Averages(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.RestaurantWithRating, len(restaurants))
	for i, r := range restaurants {
		result[i] = &domain.RestaurantWithRating{Restaurant: *r, AverageRating: averages[r.ID]}
	}
	return result, nil
}

// Update applies a partial update. Only the creator may update a restaurant.
func (s *RestaurantService) Update(ctx context.Context, id uuid.UUID, update repository.RestaurantUpdate, userID uuid.UUID) (*domain.Restaurant, error) {
	if _, err := s.ownedRestaurant(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.restaurantRepo.Update(ctx, id, trimUpdate(update))
}

// Delete removes the restaurant with its ratings and comments. Only the creator may delete it.
func (s *RestaurantService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if _, err := s.ownedRestaurant(ctx, id, userID); err != nil {
		return err
	}
	if err := s.restaurantRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.ratings.invalidate(ctx, id)
	return nil
}

func (s *RestaurantService) ownedRestaurant(ctx context.Context, id, userID uuid.UUID) (*domain.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, domain.ErrRestaurantNotFound
	}
	if restaurant.CreatedByUserID != userID {
		return nil, domain.ErrForbidden
	}
	return restaurant, nil
}

func trimUpdate(update repository.RestaurantUpdate) repository.RestaurantUpdate {
	for _, field := range []**string{&update.Name, &update.FullAddress, &update.Phone, &update.CuisineType} {
		if *field != nil {
			trimmed := strings.TrimSpace(**field)
			*field = &trimmed
		}
	}
	return update
}
