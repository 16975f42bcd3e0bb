package messaging

import (
	"context"
)

// ProductsPurchasedSubject is the JetStream subject for purchase events.
const ProductsPurchasedSubject = "products.purchased"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event. Used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
