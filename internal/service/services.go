package service

import (
	"log/slog"

	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/repository"
)

type Services struct {
	Auth       *AuthService
	Tokens     *TokenService
	Restaurant *RestaurantService
	Rating     *RatingService
	Comment    *CommentService
	Sweeper    *TokenSweeper
}

// Dependencies are the outbound adapters the services talk to. Nil Cache and
// Live fall back to no-ops.
type Dependencies struct {
	Notifier PasswordResetNotifier
	Cache    RatingCache
	Live     LiveFeed
	Logger   *slog.Logger
}

func NewServices(repos *repository.Repositories, cfg *config.Config, deps Dependencies) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens := NewTokenService(cfg)
	hasher := NewPasswordHasher(cfg.BcryptCost)

	return &Services{
		Auth:       NewAuthService(repos, hasher, tokens, deps.Notifier, cfg, logger),
		Tokens:     tokens,
		Restaurant: NewRestaurantService(repos.Restaurant, repos.Rating, deps.Cache, logger),
		Rating:     NewRatingService(repos.Rating, repos.Restaurant, deps.Cache, deps.Live, logger),
		Comment:    NewCommentService(repos.Comment, repos.Restaurant, deps.Live),
		Sweeper:    NewTokenSweeper(repos.RefreshToken, repos.PasswordResetToken, cfg.TokenSweepInterval, logger),
	}
}
