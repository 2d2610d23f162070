// Package middleware annotates authenticated requests with the caller's
// cache namespace state so downstream handlers and clients can build
// correctly versioned cache keys without asking the store again.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"caseflow/internal/cachens/models"
	"caseflow/pkg/platform/middleware/auth"
	"caseflow/pkg/requestcontext"
)

// Service is the subset of the namespace manager this middleware needs.
type Service interface {
	UserVersion(ctx context.Context, principal int64) (models.VersionLookup, error)
	IsEnabled(ctx context.Context, principal int64) (models.EnabledLookup, error)
}

// CacheNamespace resolves the principal's version and enabled flag, stores
// them in the request context, and echoes them as X-Cache-Version and
// X-Cache-Enabled response headers. Requests without an authenticated
// principal pass through untouched.
func CacheNamespace(svc Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal := auth.GetPrincipalID(ctx)
			if principal <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			version, err := svc.UserVersion(ctx, principal)
			if err != nil {
				// Validation failure on a positive principal cannot happen;
				// log and continue rather than fail the request.
				logger.WarnContext(ctx, "cache version lookup failed", "principal_id", principal, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			enabled, err := svc.IsEnabled(ctx, principal)
			if err != nil {
				logger.WarnContext(ctx, "cache enabled lookup failed", "principal_id", principal, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = requestcontext.WithCacheVersion(ctx, version.Version)
			ctx = requestcontext.WithCacheEnabled(ctx, enabled.Enabled)

			w.Header().Set("X-Cache-Version", strconv.FormatInt(version.Version, 10))
			w.Header().Set("X-Cache-Enabled", strconv.FormatBool(enabled.Enabled))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
