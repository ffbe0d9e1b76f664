package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types published on the exchange. They double as routing keys.
const (
	UserRegistered      = "user.registered"
	TransactionCreated  = "transaction.created"
	TransactionsDeleted = "transactions.deleted"
	CategoriesDeleted   = "categories.deleted"
)

// Event is the message envelope.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// New stamps an event of type t.
func New(t string, payload any) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC(), Payload: payload}
}

// ToJSON encodes the event body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
