package postgres

import (
	"context"
	"fmt"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type authEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) *authEventRepository {
	return &authEventRepository{db: db}
}

func (r *authEventRepository) Create(ctx context.Context, event *domain.AuthEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create auth event: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent events first.
func (r *authEventRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.AuthEvent, error) {
	var events []*domain.AuthEvent
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list auth events: %w", err)
	}
	return events, nil
}
