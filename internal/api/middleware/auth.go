package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/service"
)

const AccessTokenCookie = "accessToken"

type contextKey string

const (
	UserKey contextKey = "user"
)

// AccessTokenVerifier checks access tokens.
type AccessTokenVerifier interface {
	VerifyAccess(token string) (*service.Claims, error)
}

// Auth resolves the caller's identity from the accessToken cookie or, failing
// that, an Authorization bearer header. Requests without a credential pass
// through anonymously; an invalid credential is rejected with 401.
func Auth(verifier AccessTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := identify(verifier, r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, domain.ErrInvalidToken.Message)
				return
			}
			next.ServeHTTP(w, withIdentity(r, user))
		})
	}
}

// OptionalAuth is Auth for public routes: an invalid or expired credential is
// treated as no credential at all.
func OptionalAuth(verifier AccessTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := identify(verifier, r)
			if err != nil {
				user = nil
			}
			next.ServeHTTP(w, withIdentity(r, user))
		})
	}
}

// identify returns (nil, nil) when the request carries no credential.
func identify(verifier AccessTokenVerifier, r *http.Request) (*domain.AuthUser, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, nil
	}

	claims, err := verifier.VerifyAccess(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return &domain.AuthUser{ID: userID, Email: claims.Email, Name: name}, nil
}

func withIdentity(r *http.Request, user *domain.AuthUser) *http.Request {
	if user == nil {
		return r
	}
	setLoggedUser(r.Context(), user)
	return r.WithContext(WithUser(r.Context(), user))
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth rejects requests that Auth did not attach an identity to.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, user *domain.AuthUser) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func UserFromContext(ctx context.Context) (*domain.AuthUser, bool) {
	user, ok := ctx.Value(UserKey).(*domain.AuthUser)
	return user, ok && user != nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
