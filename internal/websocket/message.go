package websocket

import (
	"encoding/json"
	"time"

	"github.com/Athul-13/tablespot-api/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypePing MessageType = "PING"

	// Server to Client
	MessageTypeSubscribed     MessageType = "SUBSCRIBED"
	MessageTypePong           MessageType = "PONG"
	MessageTypeCommentAdded   MessageType = MessageType(domain.LiveEventCommentAdded)
	MessageTypeCommentDeleted MessageType = MessageType(domain.LiveEventCommentDeleted)
	MessageTypeRatingUpdated  MessageType = MessageType(domain.LiveEventRatingUpdated)
	MessageTypeError          MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type SubscribedPayload struct {
	RestaurantID string `json:"restaurantId"`
	Subscribers  int    `json:"subscribers"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
