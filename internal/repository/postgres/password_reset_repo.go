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

type passwordResetTokenRepository struct {
	db *gorm.DB
}

func NewPasswordResetTokenRepository(db *gorm.DB) *passwordResetTokenRepository {
	return &passwordResetTokenRepository{db: db}
}

func (r *passwordResetTokenRepository) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error) {
	token := &domain.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error; err != nil {
		return uuid.Nil, fmt.Errorf("create password reset token: %w", err)
	}
	return token.ID, nil
}

func (r *passwordResetTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	var token domain.PasswordResetToken
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ?", tokenHash).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find password reset token: %w", err)
	}
	return &token, nil
}

func (r *passwordResetTokenRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.PasswordResetToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete password reset token: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *passwordResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&domain.PasswordResetToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete expired password reset tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *passwordResetTokenRepository) Consume(ctx context.Context, id, userID uuid.UUID, passwordHash string) (bool, error) {
	consumed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&domain.PasswordResetToken{})
		if result.Error != nil {
			return fmt.Errorf("delete consumed password reset token: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return nil
		}
		if err := updatePassword(tx, userID, passwordHash); err != nil {
			return err
		}
		consumed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}
