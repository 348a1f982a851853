package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ratingAggregateRow struct {
	Average *float64
	Total   int64
}

type ratingAverageRow struct {
	RestaurantID uuid.UUID
	Average      float64
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *ratingRepository {
	return &ratingRepository{db: db}
}

// Upsert stores the user's rating for a restaurant, replacing any earlier one.
func (r *ratingRepository) Upsert(ctx context.Context, restaurantID, userID uuid.UUID, stars int) (*domain.Rating, error) {
	rating := &domain.Rating{
		RestaurantID: restaurantID,
		UserID:       userID,
		Stars:        stars,
	}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "restaurant_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"stars":      stars,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(rating).Error
	if err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	// On conflict the generated id was discarded, so read back the stored row.
	stored, err := r.GetByRestaurantAndUser(ctx, restaurantID, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert rating: row missing after write")
	}
	return stored, nil
}

func (r *ratingRepository) GetByRestaurantAndUser(ctx context.Context, restaurantID, userID uuid.UUID) (*domain.Rating, error) {
	var rating domain.Rating
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND user_id = ?", restaurantID, userID).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return &rating, nil
}

// Aggregate returns the average and count of ratings; the average is 0 with no ratings.
func (r *ratingRepository) Aggregate(ctx context.Context, restaurantID uuid.UUID) (*domain.RatingAggregate, error) {
	var row ratingAggregateRow
	err := r.db.WithContext(ctx).
		Model(&domain.Rating{}).
		Select("AVG(stars) AS average, COUNT(*) AS total").
		Where("restaurant_id = ?", restaurantID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}

	agg := &domain.RatingAggregate{Total: row.Total}
	if row.Average != nil && row.Total > 0 {
		agg.Average = *row.Average
	}
	return agg, nil
}

// Averages returns average stars keyed by restaurant id. Restaurants without
// ratings are absent from the map.
func (r *ratingRepository) Averages(ctx context.Context, restaurantIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	averages := make(map[uuid.UUID]float64, len(restaurantIDs))
	if len(restaurantIDs) == 0 {
		return averages, nil
	}

	var rows []ratingAverageRow
	err := r.db.WithContext(ctx).
		Model(&domain.Rating{}).
		Select("restaurant_id, AVG(stars) AS average").
		Where("restaurant_id IN ?", restaurantIDs).
		Group("restaurant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("average ratings: %w", err)
	}

	for _, row := range rows {
		averages[row.RestaurantID] = row.Average
	}
	return averages, nil
}
