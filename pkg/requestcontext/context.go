// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need without pulling
// in HTTP-related code.
//
// Usage in services (read values):
//
//	principal := requestcontext.PrincipalID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithPrincipalID(ctx, principal)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithPrincipalID(ctx, 42)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	principalIDKey  struct{}
	clientIPKey     struct{}
	userAgentKey    struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
	cacheVersionKey struct{}
	cacheEnabledKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipalID  = principalIDKey{}
	ContextKeyClientIP     = clientIPKey{}
	ContextKeyUserAgent    = userAgentKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
	ContextKeyCacheVersion = cacheVersionKey{}
	ContextKeyCacheEnabled = cacheEnabledKey{}
)

// -----------------------------------------------------------------------------
// Auth context
// -----------------------------------------------------------------------------

// PrincipalID retrieves the authenticated principal ID from the context.
// Returns 0 when the request is unauthenticated.
func PrincipalID(ctx context.Context) int64 {
	if principal, ok := ctx.Value(ContextKeyPrincipalID).(int64); ok {
		return principal
	}
	return 0
}

// WithPrincipalID injects a principal ID into the context.
func WithPrincipalID(ctx context.Context, principal int64) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipalID, principal)
}

// -----------------------------------------------------------------------------
// Client metadata
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects a client IP address into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithUserAgent injects a User-Agent into the context.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ContextKeyUserAgent, ua)
}

// -----------------------------------------------------------------------------
// Request correlation
// -----------------------------------------------------------------------------

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from the context, falling back to
// time.Now() when no middleware captured one. All operations within one
// request observe the same timestamp.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// -----------------------------------------------------------------------------
// Cache namespace state
// -----------------------------------------------------------------------------

// CacheVersion retrieves the principal's current cache namespace version.
// Returns 0 when the cache middleware did not run for this request.
func CacheVersion(ctx context.Context) int64 {
	if v, ok := ctx.Value(ContextKeyCacheVersion).(int64); ok {
		return v
	}
	return 0
}

// WithCacheVersion injects a cache namespace version into the context.
func WithCacheVersion(ctx context.Context, version int64) context.Context {
	return context.WithValue(ctx, ContextKeyCacheVersion, version)
}

// CacheEnabled reports whether caching is enabled for the request's principal.
// Defaults to true when the cache middleware did not run.
func CacheEnabled(ctx context.Context) bool {
	if enabled, ok := ctx.Value(ContextKeyCacheEnabled).(bool); ok {
		return enabled
	}
	return true
}

// WithCacheEnabled injects the cache enabled flag into the context.
func WithCacheEnabled(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ContextKeyCacheEnabled, enabled)
}
