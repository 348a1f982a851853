package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) *restaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *domain.Restaurant) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(restaurant).Error; err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}
	return nil
}

func (r *restaurantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	var restaurant domain.Restaurant
	err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return &restaurant, nil
}

func (r *restaurantRepository) Update(ctx context.Context, id uuid.UUID, update repository.RestaurantUpdate) (*domain.Restaurant, error) {
	updates := map[string]any{}
	if update.Name != nil {
		updates["name"] = *update.Name
	}
	if update.FullAddress != nil {
		updates["full_address"] = *update.FullAddress
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.CuisineType != nil {
		updates["cuisine_type"] = *update.CuisineType
	}
	if update.ImageURL != nil {
		updates["image_url"] = *update.ImageURL
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&domain.Restaurant{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("update restaurant: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, domain.ErrRestaurantNotFound
		}
	}

	restaurant, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, domain.ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (r *restaurantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Restaurant{}).Error; err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	return nil
}

// List returns restaurants newest first.
func (r *restaurantRepository) List(ctx context.Context, filter repository.ListRestaurantsFilter) ([]*domain.Restaurant, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.CuisineType != "" {
		query = query.Where("cuisine_type = ?", filter.CuisineType)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var restaurants []*domain.Restaurant
	if err := query.Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}
