package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Athul-13/tablespot-api/internal/repository"
)

// TokenSweeper periodically deletes expired refresh and password reset tokens.
type TokenSweeper struct {
	refreshTokenRepo repository.RefreshTokenRepository
	resetTokenRepo   repository.PasswordResetTokenRepository
	interval         time.Duration
	logger           *slog.Logger
	now              func() time.Time
}

func NewTokenSweeper(refreshTokenRepo repository.RefreshTokenRepository, resetTokenRepo repository.PasswordResetTokenRepository, interval time.Duration, logger *slog.Logger) *TokenSweeper {
	return &TokenSweeper{
		refreshTokenRepo: refreshTokenRepo,
		resetTokenRepo:   resetTokenRepo,
		interval:         interval,
		logger:           logger,
		now:              time.Now,
	}
}

// Run sweeps once per interval until ctx is cancelled. A non-positive
// interval disables sweeping.
func (s *TokenSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.ErrorContext(ctx, "token sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep deletes all tokens that expired before now and returns how many were removed.
func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now()

	refreshed, err := s.refreshTokenRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	reset, err := s.resetTokenRepo.DeleteExpired(ctx, now)
	if err != nil {
		return refreshed, err
	}

	if total := refreshed + reset; total > 0 {
		s.logger.InfoContext(ctx, "swept expired tokens",
			slog.Int64("refresh_tokens", refreshed),
			slog.Int64("password_reset_tokens", reset),
		)
	}
	return refreshed + reset, nil
}
