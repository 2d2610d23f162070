// Package auth provides JWT principal authentication middleware.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	request "caseflow/pkg/platform/middleware/request"
	"caseflow/pkg/requestcontext"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the claims we expect from the token validator.
// PrincipalID is the positive integer user ID that namespaces cache entries.
type Claims struct {
	PrincipalID int64
	JTI         string
}

// GetPrincipalID retrieves the authenticated principal ID from the context.
// Returns 0 for unauthenticated requests.
func GetPrincipalID(ctx context.Context) int64 {
	return requestcontext.PrincipalID(ctx)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated principal ID in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			if claims.PrincipalID <= 0 {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token carries no principal")
				return
			}

			ctx := requestcontext.WithPrincipalID(r.Context(), claims.PrincipalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
