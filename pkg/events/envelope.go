package events

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/nmxmxh/referral-leaderboard/pkg/json"
)

// Event types published by the referral service.
const (
	TypeReferralCreated = "referral.created"
)

// EventEnvelope is the wire format of every published event.
type EventEnvelope struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Key       string            `json:"key,omitempty"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// NewEnvelope marshals payload into a fresh envelope of the given type.
// key selects the partition; events sharing a key keep their order.
func NewEnvelope(eventType, key string, payload any) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := &EventEnvelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Key:       key,
		Payload:   raw,
		Timestamp: time.Now().Unix(),
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// EventTypePattern is the accepted event type format: {service}.{action}
var EventTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// Validate checks the envelope before it is handed to a broker.
func (e *EventEnvelope) Validate() error {
	if e == nil {
		return ValidationError{Field: "envelope", Message: "envelope is required"}
	}
	if e.ID == "" {
		return ValidationError{Field: "id", Message: "event id is required", Value: e.ID}
	}
	if !EventTypePattern.MatchString(e.Type) {
		return ValidationError{Field: "type", Message: "event type must follow format: {service}.{action}", Value: e.Type}
	}
	if len(e.Payload) == 0 {
		return ValidationError{Field: "payload", Message: "payload is required"}
	}
	if e.Timestamp <= 0 {
		return ValidationError{Field: "timestamp", Message: "timestamp must be positive", Value: e.Timestamp}
	}
	return nil
}
