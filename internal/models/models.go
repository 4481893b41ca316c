package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackedResource is a provisioned server whose lifecycle is enforced locally.
// ExpiresAt, Suspended and AutoRenew live in one record so a transition is a single write.
type TrackedResource struct {
	ResourceID string     `json:"resource_id"`
	OwnerID    string     `json:"owner_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"` // nil means no expiration is tracked
	Suspended  bool       `json:"suspended"`
	AutoRenew  bool       `json:"auto_renew"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// WebhookSubscription is an outbound notification target
type WebhookSubscription struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name" validate:"required,max=100"`
	TargetURL  string    `json:"target_url" validate:"required,url,startswith=http"`
	EventTypes []string  `json:"event_types" validate:"required,min=1,dive,required,event_type"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Accepts reports whether the subscription wants events of the given type.
func (s *WebhookSubscription) Accepts(eventType EventType) bool {
	for _, t := range s.EventTypes {
		if t == string(EventWildcard) || t == string(eventType) {
			return true
		}
	}
	return false
}

// DeliveryLog records the outcome of one event delivered to one subscription
type DeliveryLog struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	EventType      string    `json:"event_type"`
	Attempts       int       `json:"attempts"`
	StatusCode     *int      `json:"status_code,omitempty"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RateLimitInfo is a snapshot of the last rate-limit headers seen from the panel.
// Both fields are nil until a response carrying them has been observed.
type RateLimitInfo struct {
	Remaining *int       `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at"`
}

type HealthState string

const (
	Healthy   HealthState = "healthy"
	Unhealthy HealthState = "unhealthy"
)

// HealthStatus is the result of a panel health check
type HealthStatus struct {
	Status    HealthState `json:"status"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Error     string      `json:"error,omitempty"`
}
