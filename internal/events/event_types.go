package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-gateway/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIdentityRegistered   EventType = "identity_registered"
	EventAccessTokenRefreshed EventType = "access_token_refreshed"
	EventServiceTokenIssued   EventType = "service_token_issued"
)

// Event represents an authentication event emitted by the flows. Email is
// empty for events with no user subject, such as service token issuance.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Email     string          `json:"email,omitempty"`
	Mode      domain.AuthMode `json:"mode"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent stamps an identifier and timestamp onto an event.
func NewEvent(eventType EventType, mode domain.AuthMode, email string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Email:     email,
		Mode:      mode,
		Timestamp: time.Now(),
	}
}
