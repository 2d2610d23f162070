package testutil

import (
	"net/http"

	"caseflow/pkg/requestcontext"
)

// WithPrincipal stamps an authenticated principal on the request context,
// simulating what the auth middleware does for authenticated requests.
func WithPrincipal(req *http.Request, principal int64) *http.Request {
	return req.WithContext(requestcontext.WithPrincipalID(req.Context(), principal))
}
