package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Phone        *string   `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// AuthUser is the identity projection carried in tokens and request contexts.
type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

func (u *User) AuthUser() *AuthUser {
	return &AuthUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// RefreshToken is one active session. Only the SHA-256 of the raw token is stored.
type RefreshToken struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	TokenHash string    `json:"-" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// PasswordResetToken is one pending reset request. Several may be outstanding per user.
type PasswordResetToken struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	TokenHash string    `json:"-" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *PasswordResetToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
