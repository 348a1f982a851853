package handlers

import (
	"net/http"

	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/config"
)

const refreshTokenCookie = "refreshToken"

type cookieSettings struct {
	secure   bool
	sameSite http.SameSite
}

func newCookieSettings(cfg *config.Config) cookieSettings {
	sameSite := http.SameSiteLaxMode
	switch cfg.CookieSameSite {
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}
	return cookieSettings{secure: cfg.CookieSecure, sameSite: sameSite}
}

func (c cookieSettings) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	}
}

func (c cookieSettings) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, accessMaxAge, refreshMaxAge int) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, accessToken, accessMaxAge))
	http.SetCookie(w, c.cookie(refreshTokenCookie, refreshToken, refreshMaxAge))
}

func (c cookieSettings) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, c.cookie(refreshTokenCookie, "", -1))
}

func refreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
