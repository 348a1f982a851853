package repository

import (
	"context"
	"time"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/google/uuid"
)

// Lookups return (nil, nil) when the record does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// RefreshTokenRepository stores hashed refresh tokens. Delete reports the
// number of rows removed so callers can detect a lost rotation race.
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// Rotate atomically deletes oldID and stores the replacement. It returns
	// false, without storing anything, when oldID was already gone.
	Rotate(ctx context.Context, oldID, userID uuid.UUID, newTokenHash string, expiresAt time.Time) (bool, error)
}

type PasswordResetTokenRepository interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// Consume deletes the token and stores the user's new password hash in one
	// transaction. It returns false, changing nothing, when the token was
	// already gone.
	Consume(ctx context.Context, id, userID uuid.UUID, passwordHash string) (bool, error)
}

type AuthEventRepository interface {
	Create(ctx context.Context, event *domain.AuthEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.AuthEvent, error)
}

type ListRestaurantsFilter struct {
	CuisineType string
	Limit       int
	Offset      int
}

// RestaurantUpdate holds the fields to change; nil means unchanged.
// ImageURL uses a double pointer so an explicit null clears it.
type RestaurantUpdate struct {
	Name        *string
	FullAddress *string
	Phone       *string
	CuisineType *string
	ImageURL    **string
}

type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *domain.Restaurant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	Update(ctx context.Context, id uuid.UUID, update RestaurantUpdate) (*domain.Restaurant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListRestaurantsFilter) ([]*domain.Restaurant, error)
}

type RatingRepository interface {
	Upsert(ctx context.Context, restaurantID, userID uuid.UUID, stars int) (*domain.Rating, error)
	GetByRestaurantAndUser(ctx context.Context, restaurantID, userID uuid.UUID) (*domain.Rating, error)
	Aggregate(ctx context.Context, restaurantID uuid.UUID) (*domain.RatingAggregate, error)
	Averages(ctx context.Context, restaurantIDs []uuid.UUID) (map[uuid.UUID]float64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	User               UserRepository
	RefreshToken       RefreshTokenRepository
	PasswordResetToken PasswordResetTokenRepository
	AuthEvent          AuthEventRepository
	Restaurant         RestaurantRepository
	Rating             RatingRepository
	Comment            CommentRepository
}
