package events

import (
	"context"
)

// EventEmitter publishes canonical envelopes and returns the delivered event id.
type EventEmitter interface {
	EmitEventEnvelope(ctx context.Context, envelope *EventEnvelope) (string, error)
}

// NopEmitter drops every event. Used when no broker is configured.
type NopEmitter struct{}

// EmitEventEnvelope validates and discards envelope.
func (NopEmitter) EmitEventEnvelope(_ context.Context, envelope *EventEnvelope) (string, error) {
	if err := envelope.Validate(); err != nil {
		return "", err
	}
	return envelope.ID, nil
}
