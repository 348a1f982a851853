package service

import (
	"context"
	"log/slog"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/google/uuid"
)

// RatingCache stores per-restaurant rating aggregates. Get returns (nil, nil) on a miss.
type RatingCache interface {
	Get(ctx context.Context, restaurantID uuid.UUID) (*domain.RatingAggregate, error)
	Set(ctx context.Context, restaurantID uuid.UUID, agg *domain.RatingAggregate) error
	Delete(ctx context.Context, restaurantID uuid.UUID) error
}

// LiveFeed pushes restaurant changes to connected subscribers.
type LiveFeed interface {
	Publish(restaurantID uuid.UUID, event domain.LiveEvent, payload any)
}

type nopLiveFeed struct{}

func (nopLiveFeed) Publish(uuid.UUID, domain.LiveEvent, any) {}

type nopRatingCache struct{}

func (nopRatingCache) Get(context.Context, uuid.UUID) (*domain.RatingAggregate, error) { return nil, nil }
func (nopRatingCache) Set(context.Context, uuid.UUID, *domain.RatingAggregate) error { return nil }
func (nopRatingCache) Delete(context.Context, uuid.UUID) error { return nil }

// ratingAggregates reads rating aggregates through the cache. Cache failures
// are logged and fall through to the database.
type ratingAggregates struct {
	ratingRepo repository.RatingRepository
	cache      RatingCache
	logger     *slog.Logger
}

func newRatingAggregates(ratingRepo repository.RatingRepository, cache RatingCache, logger *slog.Logger) *ratingAggregates {
	if cache == nil {
		cache = nopRatingCache{}
	}
	return &ratingAggregates{ratingRepo: ratingRepo, cache: cache, logger: logger}
}

func (a *ratingAggregates) get(ctx context.Context, restaurantID uuid.UUID) (*domain.RatingAggregate, error) {
	cached, err := a.cache.Get(ctx, restaurantID)
	if err != nil {
		a.logger.WarnContext(ctx, "rating cache read failed",
			slog.String("restaurant_id", restaurantID.String()),
			slog.Any("error", err),
		)
	}
	if cached != nil {
		return cached, nil
	}

	agg, err := a.ratingRepo.Aggregate(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, restaurantID, agg); err != nil {
		a.logger.WarnContext(ctx, "rating cache write failed",
			slog.String("restaurant_id", restaurantID.String()),
			slog.Any("error", err),
		)
	}
	return agg, nil
}

func (a *ratingAggregates) invalidate(ctx context.Context, restaurantID uuid.UUID) {
	if err := a.cache.Delete(ctx, restaurantID); err != nil {
		a.logger.WarnContext(ctx, "rating cache invalidation failed",
			slog.String("restaurant_id", restaurantID.String()),
			slog.Any("error", err),
		)
	}
}
