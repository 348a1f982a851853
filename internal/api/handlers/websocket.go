package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/service"
	"github.com/Athul-13/tablespot-api/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

// LiveHandler upgrades connections to a restaurant's live feed.
type LiveHandler struct {
	errorResponder
	hub               *websocket.Hub
	restaurantService *service.RestaurantService
	upgrader          ws.Upgrader
}

func NewLiveHandler(hub *websocket.Hub, restaurantService *service.RestaurantService, allowedOrigins []string, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		errorResponder:    errorResponder{logger: logger},
		hub:               hub,
		restaurantService: restaurantService,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *LiveHandler) Handle(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	restaurant, err := h.restaurantService.GetByID(r.Context(), restaurantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if restaurant == nil {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	var userID *uuid.UUID
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = &user.ID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := websocket.NewClient(h.hub, conn, restaurantID, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
