package audit

import (
	"time"

	id "proovd/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring.
	// Domain verification is an ownership proof, so granting or losing it
	// belongs here.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	UserID    id.UserID     `json:"user_id"`
	WebsiteID id.WebsiteID  `json:"website_id"`
	Domain    string        `json:"domain"`
	Method    string        `json:"method,omitempty"`
	Outcome   string        `json:"outcome,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Attempts  int           `json:"attempts,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"`
	// UserAgent holds the condensed browser/os family, not the raw header.
	UserAgent string `json:"user_agent,omitempty"`
}

// AuditEvent names the verification lifecycle actions.
type AuditEvent string

const (
	EventRecordCreated   AuditEvent = "verification_record_created"
	EventMethodChanged   AuditEvent = "verification_method_changed"
	EventAttemptRecorded AuditEvent = "verification_attempt_recorded"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventRecordCreated:   CategoryOperations,
	EventMethodChanged:   CategoryOperations,
	EventAttemptRecorded: CategorySecurity,
}

// CategoryFor returns the category for an event action, defaulting to
// operations for unknown actions so nothing is silently dropped.
func CategoryFor(action AuditEvent) EventCategory {
	if c, ok := eventCategories[action]; ok {
		return c
	}
	return CategoryOperations
}
