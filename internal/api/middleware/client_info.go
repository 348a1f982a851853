package middleware

import (
	"net/http"

	"github.com/Athul-13/tablespot-api/internal/service"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// ClientInfo records the caller's address and user agent for the auth audit trail.
// It expects chi's RealIP and RequestID to run first.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithClientInfo(r.Context(), service.ClientInfo{
			IP:        r.RemoteAddr,
			UserAgent: r.UserAgent(),
			RequestID: chiMiddleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
