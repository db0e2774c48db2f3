package booking

import "context"

// JSONWriter is a keyed message sink such as a Kafka producer.
type JSONWriter interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// EventPublisher keys status changes by booking id so a booking's events stay ordered.
type EventPublisher struct {
	w JSONWriter
}

func NewEventPublisher(w JSONWriter) *EventPublisher {
	return &EventPublisher{w: w}
}

func (p *EventPublisher) Publish(ctx context.Context, change StatusChange) error {
	return p.w.PublishJSON(ctx, string(change.BookingID), change)
}
