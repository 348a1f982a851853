package api

import (
	"log/slog"
	"net/http"

	"github.com/Athul-13/tablespot-api/internal/api/handlers"
	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/service"
	"github.com/Athul-13/tablespot-api/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *websocket.Hub, db handlers.Pinger, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ClientInfo)

	healthHandler := handlers.NewHealthHandler(db)
	r.Get("/health", healthHandler.Health)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, services.Tokens, cfg, logger)
	restaurantHandler := handlers.NewRestaurantHandler(services.Restaurant, logger)
	commentHandler := handlers.NewCommentHandler(services.Comment, logger)
	ratingHandler := handlers.NewRatingHandler(services.Rating, logger)
	liveHandler := handlers.NewLiveHandler(hub, services.Restaurant, cfg.CORSOrigins, logger)

	requireAuth := func(r chi.Router) {
		r.Use(middleware.Auth(services.Tokens))
		r.Use(middleware.RequireAuth)
	}

	// API v1 routes. Session endpoints and public reads never look at the
	// access token, so a stale one cannot block refresh or logout.
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				requireAuth(r)
				r.Get("/me", authHandler.Me)
				r.Get("/activity", authHandler.Activity)
				r.Post("/logout-all", authHandler.LogoutAll)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", restaurantHandler.List)
			r.Get("/{restaurantId}", restaurantHandler.Get)
			r.Get("/{restaurantId}/comments", commentHandler.List)

			// Identity only personalizes these responses
			r.Group(func(r chi.Router) {
				r.Use(middleware.OptionalAuth(services.Tokens))
				r.Get("/{restaurantId}/ratings", ratingHandler.Get)
				r.Get("/{restaurantId}/live", liveHandler.Handle)
			})

			r.Group(func(r chi.Router) {
				requireAuth(r)
				r.Post("/", restaurantHandler.Create)
				r.Patch("/{restaurantId}", restaurantHandler.Update)
				r.Delete("/{restaurantId}", restaurantHandler.Delete)
				r.Post("/{restaurantId}/comments", commentHandler.Add)
				r.Delete("/{restaurantId}/comments/{commentId}", commentHandler.Delete)
				r.Put("/{restaurantId}/ratings", ratingHandler.Set)
			})
		})
	})

	return r
}
