package events

import "context"

// Publisher delivers billing events after the owning transaction commits.
// Publish must not block the caller on broker availability.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
