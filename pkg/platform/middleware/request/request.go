// Package request provides request correlation ID middleware.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"caseflow/pkg/requestcontext"
)

// HeaderRequestID is the header clients and proxies use to supply or read
// the correlation ID.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns each request a correlation ID, honoring one supplied by
// an upstream proxy, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
