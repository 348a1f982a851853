package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *commentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and loads its author.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	if err := db.First(&comment.User, "id = ?", comment.UserID).Error; err != nil {
		return fmt.Errorf("load comment author: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// ListByRestaurant returns comments newest first with their authors loaded.
func (r *commentRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
