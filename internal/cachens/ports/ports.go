// Package ports defines shared interfaces for the cachens module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
//
//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks
package ports

import (
	"context"
	"log/slog"
	"time"

	"caseflow/pkg/attrs"
	"caseflow/pkg/platform/audit"
	request "caseflow/pkg/platform/middleware/request"
	"caseflow/pkg/requestcontext"
)

// KeyValueStore is the shared cache store the namespace and sequence layers
// run on. Every operation is atomic at the single-key level.
//
// Get returns sentinel.ErrNotFound for absent keys. Incr increments an
// existing integer-valued key and returns the new value; it must fail with
// sentinel.ErrNotFound when the key does not exist rather than silently
// creating it, so callers can distinguish "counter at 1" from "counter never
// primed". Add writes only when the key is absent and reports whether it won.
// A ttl of zero means no expiry.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
}

// AuditPublisher emits audit events for operator-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit is a shared helper for recording audit events across services.
// It logs to both the structured logger and the audit publisher if available.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, category audit.EventCategory, event string, kv ...any) {
	// Add request ID for traceability
	if requestID := request.GetRequestID(ctx); requestID != "" {
		kv = append(kv, "request_id", requestID)
	}

	// Add standard audit fields
	args := append(kv, "event", event, "log_type", "audit")

	// Log to structured logger
	if logger != nil {
		logger.InfoContext(ctx, event, args...)
	}

	// Emit to audit publisher
	if publisher == nil {
		return
	}
	evt := audit.Event{
		Category:    category,
		PrincipalID: requestcontext.PrincipalID(ctx),
		Subject:     attrs.ExtractString(kv, "subject"),
		Action:      event,
		RequestID:   requestcontext.RequestID(ctx),
		ClientIP:    requestcontext.ClientIP(ctx),
	}
	if err := publisher.Emit(ctx, evt); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event, "error", err)
	}
}
