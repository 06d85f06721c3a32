package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types on the shop topic.
const (
	TypeOrderCompleted = "OrderCompleted"
	TypeMessageCreated = "MessageCreated"
)

// Envelope wraps every event on the wire.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope wraps a payload for publishing.
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}, nil
}

// OrderCompleted is published by the fulfillment webhook once an order and
// its items are persisted. It carries everything the notifier needs, so
// the notifier does not read the database.
type OrderCompleted struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Email   string      `json:"email"`
	Total   float64     `json:"total"`
	Items   []OrderLine `json:"items"`
}

type OrderLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// MessageCreated is published when a conversation message is stored. The
// Kafka key is the conversation ID, so one conversation maps to one
// partition and events arrive in creation order.
type MessageCreated struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}
