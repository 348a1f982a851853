package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuthAction string

const (
	AuthActionSignup                 AuthAction = "signup"
	AuthActionLoginSuccess           AuthAction = "login_success"
	AuthActionLoginFailure           AuthAction = "login_failure"
	AuthActionLogout                 AuthAction = "logout"
	AuthActionLogoutAll              AuthAction = "logout_all"
	AuthActionTokenRefresh           AuthAction = "token_refresh"
	AuthActionPasswordResetRequested AuthAction = "password_reset_requested"
	AuthActionPasswordReset          AuthAction = "password_reset"
	AuthActionPasswordChanged        AuthAction = "password_changed"
)

// AuthEvent is one entry in the account activity trail.
type AuthEvent struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    *uuid.UUID        `json:"userId" gorm:"type:uuid;index"`
	Action    AuthAction        `json:"action" gorm:"not null;index"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt" gorm:"index"`
}

func (e *AuthEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
