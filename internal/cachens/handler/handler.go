package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/cachens/models"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/platform/middleware/auth"
	"caseflow/pkg/requestcontext"
)

// Service defines the cache namespace operations the handlers need.
type Service interface {
	UserVersion(ctx context.Context, principal int64) (models.VersionLookup, error)
	IncrementUserVersion(ctx context.Context, principal int64) (int64, error)
	IsEnabled(ctx context.Context, principal int64) (models.EnabledLookup, error)
	SetEnabled(ctx context.Context, principal int64, enabled bool) error
}

// Handler wires cache namespace endpoints to the namespace manager.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a cache namespace handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the self-service endpoints on the router. The caller is
// expected to have wrapped the router in authentication middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/cache/status", h.HandleStatus)
	r.Post("/cache/enable", h.HandleEnable)
	r.Post("/cache/disable", h.HandleDisable)
	r.Post("/cache/clear", h.HandleClear)
}

// RegisterAdmin mounts the same operations keyed by an explicit principal
// path parameter, for operators acting on someone else's namespace.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/cache/{principalID}/status", h.HandleStatus)
	r.Post("/cache/{principalID}/enable", h.HandleEnable)
	r.Post("/cache/{principalID}/disable", h.HandleDisable)
	r.Post("/cache/{principalID}/clear", h.HandleClear)
}

// HandleStatus handles GET /cache/status requests.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	enabled, err := h.service.IsEnabled(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	version, err := h.service.UserVersion(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// A defaulted lookup means the store is unreachable and the values are
	// guesses; status is the one endpoint that should say so.
	if enabled.Outcome == models.OutcomeDefaulted || version.Outcome == models.OutcomeDefaulted {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "cache store unreachable"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Enabled: enabled.Enabled,
		Version: version.Version,
		Message: statusMessage(enabled.Enabled),
	})
}

// HandleEnable handles POST /cache/enable requests.
func (h *Handler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

// HandleDisable handles POST /cache/disable requests.
func (h *Handler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.service.SetEnabled(ctx, principal, enabled); err != nil {
		h.logger.ErrorContext(ctx, "cache enabled toggle failed",
			"request_id", requestID,
			"principal_id", principal,
			"enabled", enabled,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	version, err := h.service.UserVersion(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "cache enabled toggled",
		"request_id", requestID,
		"principal_id", principal,
		"enabled", enabled,
	)

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Enabled: enabled,
		Version: version.Version,
		Message: statusMessage(enabled),
	})
}

// HandleClear handles POST /cache/clear requests.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	version, err := h.service.IncrementUserVersion(ctx, principal)
	if err != nil {
		h.logger.ErrorContext(ctx, "cache clear failed",
			"request_id", requestID,
			"principal_id", principal,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "cache cleared",
		"request_id", requestID,
		"principal_id", principal,
		"version", version,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, ClearResponse{
		Version: version,
		Cleared: true,
		Message: fmt.Sprintf("cache cleared, now at version %d", version),
	})
}

// principal resolves the target principal: the {principalID} path parameter
// on admin routes, otherwise the authenticated caller from the context.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if raw := chi.URLParam(r, "principalID"); raw != "" {
		principal, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || principal <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid principal id"))
			return 0, false
		}
		return principal, true
	}

	principal := auth.GetPrincipalID(r.Context())
	if principal <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return 0, false
	}
	return principal, true
}

func statusMessage(enabled bool) string {
	if enabled {
		return "caching is enabled"
	}
	return "caching is disabled"
}
