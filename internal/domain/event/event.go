package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeChoiceSubmitted = "choice_submitted"
	TypeSessionClosed   = "session_closed"
)

// Publisher delivers session events to subscribers. Implementations must not block.
type Publisher interface {
	Publish(sessionID uuid.UUID, msg *Message)
}

// Client represents an active SSE subscription to one session.
type Client struct {
	ClientID    string
	SessionID   uuid.UUID
	ConnectedAt time.Time
	MessageChan chan *Message
}

// NewClient creates a new SSE client
func NewClient(clientID string, sessionID uuid.UUID) *Client {
	return &Client{
		ClientID:    clientID,
		SessionID:   sessionID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *Message, 32),
	}
}

// Close closes the client's message channel
func (c *Client) Close() {
	close(c.MessageChan)
}

// Message is a single event sent over SSE.
type Message struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage marshals data into a message of the given event type.
func NewMessage(eventType string, data interface{}) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        uuid.New().String(),
		Event:     eventType,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(uuid.UUID, *Message) {}
