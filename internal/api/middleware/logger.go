package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Athul-13/tablespot-api/internal/domain"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type loggedUserKey struct{}

// loggedUser lets Auth, which runs further down the chain, report the caller
// back to the request logger.
type loggedUser struct {
	user *domain.AuthUser
}

func setLoggedUser(ctx context.Context, user *domain.AuthUser) {
	if slot, ok := ctx.Value(loggedUserKey{}).(*loggedUser); ok {
		slot.user = user
	}
}

// RequestLogger logs one line per completed request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			slot := &loggedUser{}
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), loggedUserKey{}, slot)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			}
			if slot.user != nil {
				attrs = append(attrs, slog.String("user_id", slot.user.ID.String()))
			}
			logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
		})
	}
}
