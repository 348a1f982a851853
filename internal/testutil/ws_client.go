package testutil

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Athul-13/tablespot-api/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test client for a restaurant live feed
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient connects to url. header may carry cookies or an Origin.
func NewWSClient(t *testing.T, url string, header http.Header) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errors <- err
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// Ping sends a PING message; the server answers with PONG.
func (c *WSClient) Ping() {
	c.t.Helper()

	data, err := json.Marshal(&websocket.Message{
		Type:      websocket.MessageTypePing,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		c.t.Fatalf("failed to marshal ping: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send ping: %v", err)
	}
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectPayload waits for a message of msgType and decodes its payload into v
func (c *WSClient) ExpectPayload(msgType websocket.MessageType, v any, timeout time.Duration) {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msgType, err)
	}
}

// ExpectSubscribed waits for the SUBSCRIBED acknowledgement sent after registration
func (c *WSClient) ExpectSubscribed(timeout time.Duration) *websocket.SubscribedPayload {
	c.t.Helper()

	var payload websocket.SubscribedPayload
	c.ExpectPayload(websocket.MessageTypeSubscribed, &payload, timeout)
	return &payload
}

// ExpectNoMessage fails if any message arrives within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message %s", msg.Type)
		}
	case <-time.After(timeout):
	}
}
