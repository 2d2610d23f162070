package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryBilling covers events with financial significance, such as
	// invoice creation and sequence assignment. Long retention.
	CategoryBilling EventCategory = "billing"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, such as cache invalidations and enable/disable toggles.
	// These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory `json:"category"`
	Timestamp   time.Time     `json:"timestamp"`
	PrincipalID int64         `json:"principal_id,omitempty"`
	Subject     string        `json:"subject,omitempty"`
	Action      string        `json:"action"`
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string `json:"request_id,omitempty"`
	// ClientIP records where the triggering request came from.
	ClientIP string `json:"client_ip,omitempty"`
}

type AuditEvent string

const (
	// Cache namespace events
	EventCacheCleared  AuditEvent = "cache_cleared"
	EventCacheEnabled  AuditEvent = "cache_enabled"
	EventCacheDisabled AuditEvent = "cache_disabled"

	// Invoice events
	EventInvoiceCreated AuditEvent = "invoice_created"
)
