package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/service"
)

const forgotPasswordMessage = "If an account exists for this email, you will receive a password reset link."

type AuthHandler struct {
	errorResponder
	authService *service.AuthService
	tokens      *service.TokenService
	cookies     cookieSettings
}

func NewAuthHandler(authService *service.AuthService, tokens *service.TokenService, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		errorResponder: errorResponder{logger: logger},
		authService:    authService,
		tokens:         tokens,
		cookies:        newCookieSettings(cfg),
	}
}

type SignupRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,maxbytes=72"`
	Phone    *string `json:"phone"`
}

func (r *SignupRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = service.NormalizeEmail(r.Email)
	if r.Phone != nil {
		phone := strings.TrimSpace(*r.Phone)
		r.Phone = &phone
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) normalize() {
	r.Email = service.NormalizeEmail(r.Email)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ForgotPasswordRequest) normalize() {
	r.Email = service.NormalizeEmail(r.Email)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,maxbytes=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,maxbytes=72"`
}

type UserResponse struct {
	User *domain.AuthUser `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.authService.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.setSession(w, result)
	writeJSON(w, http.StatusOK, UserResponse{User: result.User})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.authService.Refresh(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if result == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	h.setSession(w, result)
	writeJSON(w, http.StatusOK, UserResponse{User: result.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), refreshTokenFromRequest(r)); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.cookies.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// LogoutAll ends every session of the caller, including the current one.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	if err := h.authService.LogoutAll(r.Context(), user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.cookies.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": forgotPasswordMessage})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// Me returns the identity carried by the access token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Activity(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.authService.Activity(r.Context(), user.ID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, result *service.LoginResult) {
	h.cookies.setAuthCookies(w,
		result.AccessToken, result.RefreshToken,
		h.tokens.AccessTokenMaxAge(), h.tokens.RefreshTokenMaxAge(),
	)
}
