package service

import (
	"context"
	"log/slog"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/google/uuid"
)

type RatingService struct {
	ratingRepo     repository.RatingRepository
	restaurantRepo repository.RestaurantRepository
	ratings        *ratingAggregates
	live           LiveFeed
}

func NewRatingService(ratingRepo repository.RatingRepository, restaurantRepo repository.RestaurantRepository, cache RatingCache, live LiveFeed, logger *slog.Logger) *RatingService {
	if live == nil {
		live = nopLiveFeed{}
	}
	return &RatingService{
		ratingRepo:     ratingRepo,
		restaurantRepo: restaurantRepo,
		ratings:        newRatingAggregates(ratingRepo, cache, logger),
		live:           live,
	}
}

// SetRating creates or replaces the user's rating of a restaurant.
func (s *RatingService) SetRating(ctx context.Context, restaurantID, userID uuid.UUID, stars int) (*domain.Rating, error) {
	if stars < domain.MinStars || stars > domain.MaxStars {
		return nil, domain.ErrRatingInvalid
	}
	if err := s.requireRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	rating, err := s.ratingRepo.Upsert(ctx, restaurantID, userID, stars)
	if err != nil {
		return nil, err
	}

	s.ratings.invalidate(ctx, restaurantID)
	if agg, err := s.ratings.get(ctx, restaurantID); err == nil {
		s.live.Publish(restaurantID, domain.LiveEventRatingUpdated, agg)
	}
	return rating, nil
}

// GetRating summarizes a restaurant's ratings. userID is optional; when set
// the caller's own rating is included.
func (s *RatingService) GetRating(ctx context.Context, restaurantID uuid.UUID, userID *uuid.UUID) (*domain.RatingSummary, error) {
	if err := s.requireRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	agg, err := s.ratings.get(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	summary := &domain.RatingSummary{
		AverageRating: agg.Average,
		TotalRatings:  agg.Total,
	}
	if userID != nil {
		own, err := s.ratingRepo.GetByRestaurantAndUser(ctx, restaurantID, *userID)
		if err != nil {
			return nil, err
		}
		if own != nil {
			stars := own.Stars
			summary.UserRating = &stars
		}
	}
	return summary, nil
}

func (s *RatingService) requireRestaurant(ctx context.Context, restaurantID uuid.UUID) error {
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return err
	}
	if restaurant == nil {
		return domain.ErrRestaurantNotFound
	}
	return nil
}
