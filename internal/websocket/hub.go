package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/google/uuid"
)

type broadcast struct {
	restaurantID uuid.UUID
	data         []byte
}

// Hub fans restaurant events out to the clients watching each restaurant.
// Client membership is owned by the Run goroutine.
type Hub struct {
	feeds      map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	counts     map[uuid.UUID]int
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		feeds:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcast, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		counts:     make(map[uuid.UUID]int),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, clients := range h.feeds {
				for client := range clients {
					client.Close()
				}
			}
			h.feeds = make(map[uuid.UUID]map[*Client]bool)
			h.counts = make(map[uuid.UUID]int)
			h.mu.Unlock()
			return

		case client := <-h.register:
			clients, ok := h.feeds[client.restaurantID]
			if !ok {
				clients = make(map[*Client]bool)
				h.feeds[client.restaurantID] = clients
			}
			clients[client] = true
			h.setCount(client.restaurantID, len(clients))

			msg, _ := NewMessage(MessageTypeSubscribed, SubscribedPayload{
				RestaurantID: client.restaurantID.String(),
				Subscribers:  len(clients),
			})
			client.Send(msg)

		case client := <-h.unregister:
			clients := h.feeds[client.restaurantID]
			if _, ok := clients[client]; ok {
				delete(clients, client)
				client.Close()
				if len(clients) == 0 {
					delete(h.feeds, client.restaurantID)
				}
				h.setCount(client.restaurantID, len(clients))
			}

		case b := <-h.broadcast:
			for client := range h.feeds[b.restaurantID] {
				if !client.trySend(b.data) {
					// Slow consumer; drop it rather than block the feed.
					delete(h.feeds[b.restaurantID], client)
					client.Close()
					h.setCount(b.restaurantID, len(h.feeds[b.restaurantID]))
				}
			}
		}
	}
}

func (h *Hub) setCount(restaurantID uuid.UUID, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n == 0 {
		delete(h.counts, restaurantID)
		return
	}
	h.counts[restaurantID] = n
}

// Stop closes every client connection and blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) isStopped() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stopped
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	if h.isStopped() {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends an event to every subscriber of the restaurant. It never blocks
// the caller; events are dropped if the hub is saturated or stopped.
func (h *Hub) Publish(restaurantID uuid.UUID, event domain.LiveEvent, payload any) {
	if h.isStopped() {
		return
	}

	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		h.logger.Error("failed to build live message", slog.String("event", string(event)), slog.Any("error", err))
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal live message", slog.String("event", string(event)), slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- broadcast{restaurantID: restaurantID, data: data}:
	default:
		h.logger.Warn("live feed saturated, dropping event",
			slog.String("restaurant_id", restaurantID.String()),
			slog.String("event", string(event)),
		)
	}
}

// SubscriberCount reports how many clients watch the restaurant.
func (h *Hub) SubscriberCount(restaurantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[restaurantID]
}
