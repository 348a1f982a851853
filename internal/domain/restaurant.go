package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinStars = 1
	MaxStars = 5
)

type Restaurant struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string    `json:"name" gorm:"not null"`
	FullAddress     string    `json:"fullAddress" gorm:"not null"`
	Phone           string    `json:"phone" gorm:"not null"`
	CuisineType     string    `json:"cuisineType" gorm:"not null;index"`
	ImageURL        *string   `json:"imageUrl"`
	CreatedByUserID uuid.UUID `json:"createdByUserId" gorm:"type:uuid;not null;index"`
	CreatedBy       User      `json:"-" gorm:"foreignKey:CreatedByUserID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RestaurantWithRating is a restaurant decorated with its average star rating.
type RestaurantWithRating struct {
	Restaurant
	AverageRating float64 `json:"averageRating"`
}

type Rating struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RestaurantID uuid.UUID  `json:"restaurantId" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_restaurant_user"`
	Restaurant   Restaurant `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UserID       uuid.UUID  `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_restaurant_user"`
	User         User       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Stars        int        `json:"stars" gorm:"not null"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (r *Rating) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RatingAggregate is the per-restaurant rating statistic that gets cached.
type RatingAggregate struct {
	Average float64 `json:"averageRating"`
	Total   int64   `json:"totalRatings"`
}

// RatingSummary is a RatingAggregate plus the caller's own rating, if any.
type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
	UserRating    *int    `json:"userRating"`
}

type Comment struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RestaurantID uuid.UUID  `json:"restaurantId" gorm:"type:uuid;not null;index"`
	Restaurant   Restaurant `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UserID       uuid.UUID  `json:"userId" gorm:"type:uuid;not null"`
	User         User       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Body         string     `json:"body" gorm:"not null"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CommentAuthor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CommentView is a comment as returned to clients, with its author's public fields.
type CommentView struct {
	ID           uuid.UUID     `json:"id"`
	RestaurantID uuid.UUID     `json:"restaurantId"`
	UserID       uuid.UUID     `json:"userId"`
	Body         string        `json:"body"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	User         CommentAuthor `json:"user"`
}

func (c *Comment) View() *CommentView {
	return &CommentView{
		ID:           c.ID,
		RestaurantID: c.RestaurantID,
		UserID:       c.UserID,
		Body:         c.Body,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		User:         CommentAuthor{ID: c.User.ID, Name: c.User.Name},
	}
}

// LiveEvent names a change pushed to subscribers of a restaurant's live feed.
type LiveEvent string

const (
	LiveEventCommentAdded   LiveEvent = "COMMENT_ADDED"
	LiveEventCommentDeleted LiveEvent = "COMMENT_DELETED"
	LiveEventRatingUpdated  LiveEvent = "RATING_UPDATED"
)
