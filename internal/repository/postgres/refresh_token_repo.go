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

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *refreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error) {
	return createRefreshToken(r.db.WithContext(ctx), userID, tokenHash, expiresAt)
}

func createRefreshToken(tx *gorm.DB, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error) {
	token := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := tx.Omit(clause.Associations).Create(token).Error; err != nil {
		return uuid.Nil, fmt.Errorf("create refresh token: %w", err)
	}
	return token.ID, nil
}

func (r *refreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ?", tokenHash).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

func (r *refreshTokenRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete refresh token: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *refreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.RefreshToken{}).Error
	if err != nil {
		return fmt.Errorf("delete refresh tokens for user: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&domain.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, oldID, userID uuid.UUID, newTokenHash string, expiresAt time.Time) (bool, error) {
	rotated := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", oldID).Delete(&domain.RefreshToken{})
		if result.Error != nil {
			return fmt.Errorf("delete rotated refresh token: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return nil
		}
		if _, err := createRefreshToken(tx, userID, newTokenHash, expiresAt); err != nil {
			return err
		}
		rotated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return rotated, nil
}
