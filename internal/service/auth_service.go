package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PasswordResetNotifier delivers reset links out of band.
type PasswordResetNotifier interface {
	SendPasswordResetLink(ctx context.Context, email, rawToken string) error
}

type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	resetTokenRepo   repository.PasswordResetTokenRepository
	authEventRepo    repository.AuthEventRepository
	hasher           *PasswordHasher
	tokens           *TokenService
	notifier         PasswordResetNotifier
	resetExpiry      time.Duration
	revokeOnReset    bool
	logger           *slog.Logger
	now              func() time.Time
}

func NewAuthService(
	repos *repository.Repositories,
	hasher *PasswordHasher,
	tokens *TokenService,
	notifier PasswordResetNotifier,
	cfg *config.Config,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         repos.User,
		refreshTokenRepo: repos.RefreshToken,
		resetTokenRepo:   repos.PasswordResetToken,
		authEventRepo:    repos.AuthEvent,
		hasher:           hasher,
		tokens:           tokens,
		notifier:         notifier,
		resetExpiry:      cfg.PasswordResetExpiry,
		revokeOnReset:    cfg.RevokeSessionsOnPasswordReset,
		logger:           logger,
		now:              time.Now,
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	User         *domain.AuthUser
	AccessToken  string
	RefreshToken string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.AuthUser, error) {
	email := NormalizeEmail(input.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: passwordHash,
		Phone:        input.Phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.record(ctx, &user.ID, domain.AuthActionSignup, nil)
	return user.AuthUser(), nil
}

// Login returns ErrInvalidCredentials for unknown emails and wrong passwords alike.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := NormalizeEmail(input.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.record(ctx, nil, domain.AuthActionLoginFailure, datatypes.JSONMap{"email": email})
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Compare(input.Password, user.PasswordHash) {
		s.record(ctx, &user.ID, domain.AuthActionLoginFailure, nil)
		return nil, domain.ErrInvalidCredentials
	}

	authUser := user.AuthUser()
	accessToken, refreshToken, err := s.signPair(authUser)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	if _, err := s.refreshTokenRepo.Create(ctx, user.ID, HashToken(refreshToken), expiresAt); err != nil {
		return nil, err
	}

	s.record(ctx, &user.ID, domain.AuthActionLoginSuccess, nil)
	return &LoginResult{
		User:         authUser,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed; an empty token yields (nil, nil).
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, nil
	}

	claims, err := s.tokens.VerifyRefresh(rawToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	stored, err := s.refreshTokenRepo.FindByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Expired(s.now()) {
		if stored != nil {
			if _, err := s.refreshTokenRepo.Delete(ctx, stored.ID); err != nil {
				return nil, err
			}
		}
		return nil, domain.ErrTokenExpired
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}

	authUser := user.AuthUser()
	accessToken, refreshToken, err := s.signPair(authUser)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	rotated, err := s.refreshTokenRepo.Rotate(ctx, stored.ID, user.ID, HashToken(refreshToken), expiresAt)
	if err != nil {
		return nil, err
	}
	if !rotated {
		// Another request consumed this token first.
		return nil, domain.ErrInvalidToken
	}

	s.record(ctx, &user.ID, domain.AuthActionTokenRefresh, nil)
	return &LoginResult{
		User:         authUser,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout removes the session behind rawToken. Unknown or empty tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}

	stored, err := s.refreshTokenRepo.FindByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}
	if _, err := s.refreshTokenRepo.Delete(ctx, stored.ID); err != nil {
		return err
	}

	s.record(ctx, &stored.UserID, domain.AuthActionLogout, nil)
	return nil
}

// LogoutAll removes every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.refreshTokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	s.record(ctx, &userID, domain.AuthActionLogoutAll, nil)
	return nil
}

// RequestPasswordReset issues a reset token and mails it. Unknown emails
// succeed silently so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	rawToken, err := generateRawToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.resetExpiry)
	if _, err := s.resetTokenRepo.Create(ctx, user.ID, HashToken(rawToken), expiresAt); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordResetLink(ctx, user.Email, rawToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset link",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}

	s.record(ctx, &user.ID, domain.AuthActionPasswordResetRequested, nil)
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	stored, err := s.resetTokenRepo.FindByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		return err
	}
	if stored == nil || stored.Expired(s.now()) {
		return domain.ErrInvalidToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	// The token is only spent if the new password is stored.
	consumed, err := s.resetTokenRepo.Consume(ctx, stored.ID, stored.UserID, passwordHash)
	if err != nil {
		return err
	}
	if !consumed {
		return domain.ErrInvalidToken
	}

	if s.revokeOnReset {
		if err := s.refreshTokenRepo.DeleteByUserID(ctx, stored.UserID); err != nil {
			return err
		}
	}

	s.record(ctx, &stored.UserID, domain.AuthActionPasswordReset, datatypes.JSONMap{
		"sessionsRevoked": s.revokeOnReset,
	})
	return nil
}

// ChangePassword replaces the password after checking the current one.
// Existing sessions stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || !s.hasher.Compare(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	s.record(ctx, &userID, domain.AuthActionPasswordChanged, nil)
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.AuthUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user.AuthUser(), nil
}

// Activity returns the user's most recent auth events.
func (s *AuthService) Activity(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.AuthEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.authEventRepo.ListByUser(ctx, userID, limit)
}

func (s *AuthService) signPair(user *domain.AuthUser) (string, string, error) {
	accessToken, err := s.tokens.SignAccess(user)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.tokens.SignRefresh(user)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// record stores an auth event. Failures are logged and never fail the caller.
func (s *AuthService) record(ctx context.Context, userID *uuid.UUID, action domain.AuthAction, metadata datatypes.JSONMap) {
	if info, ok := ClientInfoFromContext(ctx); ok {
		if metadata == nil {
			metadata = datatypes.JSONMap{}
		}
		if info.IP != "" {
			metadata["ip"] = info.IP
		}
		if info.UserAgent != "" {
			metadata["userAgent"] = info.UserAgent
		}
	}

	event := &domain.AuthEvent{
		UserID:   userID,
		Action:   action,
		Metadata: metadata,
	}
	if err := s.authEventRepo.Create(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record auth event",
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}
