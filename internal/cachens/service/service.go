// Package service implements per-principal cache namespace versioning.
//
// Every cached entry for a principal lives under a versioned key prefix.
// Invalidation bumps the version, which orphans all previously written keys
// in O(1) without enumerating them; the store's own eviction reclaims the
// orphans. One Manager is constructed per process and passed to consumers;
// there is no package-level instance, so tests get isolated managers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/cachens/metrics"
	"caseflow/internal/cachens/models"
	"caseflow/internal/cachens/ports"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/platform/sentinel"
)

// Type aliases for shared interfaces.
type (
	Store          = ports.KeyValueStore
	AuditPublisher = ports.AuditPublisher
)

type Manager struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Manager) {
		m.auditPublisher = publisher
	}
}

func New(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("key-value store is required")
	}

	m := &Manager{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("caseflow/cachens"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// UserVersion returns the principal's current namespace version, initializing
// it to 1 on first access. Store failures never propagate from this read
// path: the caller gets the safe default of 1 with OutcomeDefaulted, because
// a namespacing hiccup must not block request processing.
func (m *Manager) UserVersion(ctx context.Context, principal int64) (models.VersionLookup, error) {
	if err := models.ValidatePrincipalID(principal); err != nil {
		return models.VersionLookup{}, err
	}

	key := models.VersionKey(principal)

	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Add-if-absent so a concurrent initializer is never overwritten,
		// then re-read to learn the winning value.
		if _, addErr := m.store.Add(ctx, key, strconv.FormatInt(models.InitialVersion, 10), 0); addErr != nil {
			return m.defaultVersion(ctx, principal, addErr), nil
		}
		raw, err = m.store.Get(ctx, key)
	}
	if err != nil {
		return m.defaultVersion(ctx, principal, err), nil
	}

	version, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil || version < models.InitialVersion {
		return m.repairVersion(ctx, principal, key, raw), nil
	}

	return models.VersionLookup{Version: version, Outcome: models.OutcomeFresh}, nil
}

// IncrementUserVersion bumps the principal's namespace version, invalidating
// every key cached under the previous prefix. Unlike the read paths, a store
// failure here propagates after one non-atomic fallback attempt: silently
// failing to invalidate would serve stale data indefinitely.
func (m *Manager) IncrementUserVersion(ctx context.Context, principal int64) (int64, error) {
	if err := models.ValidatePrincipalID(principal); err != nil {
		return 0, err
	}

	ctx, span := m.tracer.Start(ctx, "cachens.IncrementUserVersion")
	defer span.End()

	start := time.Now()
	key := models.VersionKey(principal)

	// Ensure the counter exists; a defaulted lookup still carries the best
	// known version for the fallback below.
	lookup, err := m.UserVersion(ctx, principal)
	if err != nil {
		return 0, err
	}

	version, incrErr := m.store.Incr(ctx, key)
	if incrErr != nil {
		version, err = m.bumpNonAtomic(ctx, principal, key, lookup.Version, incrErr)
		if err != nil {
			return 0, err
		}
	}

	if m.metrics != nil {
		m.metrics.IncrementInvalidations()
		m.metrics.ObserveInvalidationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}
	ports.LogAudit(ctx, m.logger, m.auditPublisher, audit.CategoryOperations, string(audit.EventCacheCleared),
		"principal_id", principal,
		"version", version,
	)

	return version, nil
}

// bumpNonAtomic is the one local fallback the invalidation path gets: read
// the current value and write current+1. Not safe against concurrent
// writers, hence the warning.
func (m *Manager) bumpNonAtomic(ctx context.Context, principal int64, key string, lastKnown int64, cause error) (int64, error) {
	m.logger.WarnContext(ctx, "atomic version increment failed, falling back to read-then-write; concurrent invalidations may be lost",
		"principal_id", principal,
		"error", cause,
	)
	if m.metrics != nil {
		m.metrics.IncrementNonAtomicBumps()
	}

	current := lastKnown
	if raw, err := m.store.Get(ctx, key); err == nil {
		if v, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil && v >= models.InitialVersion {
			current = v
		}
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "cache store unreachable during version bump")
	}

	next := current + 1
	if err := m.store.Set(ctx, key, strconv.FormatInt(next, 10), 0); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "cache store unreachable during version bump")
	}
	return next, nil
}

// CacheKeyPrefix returns the namespace prefix for all of a principal's cached
// entries at the current version.
func (m *Manager) CacheKeyPrefix(ctx context.Context, principal int64) (string, error) {
	lookup, err := m.UserVersion(ctx, principal)
	if err != nil {
		return "", err
	}
	return models.KeyPrefix(principal, lookup.Version), nil
}

// CacheKey returns the full namespaced key for a query hash. The hash is
// validated before any store access.
func (m *Manager) CacheKey(ctx context.Context, principal int64, queryHash string) (string, error) {
	if err := models.ValidatePrincipalID(principal); err != nil {
		return "", err
	}
	if err := models.ValidateQueryHash(queryHash); err != nil {
		return "", err
	}

	lookup, err := m.UserVersion(ctx, principal)
	if err != nil {
		return "", err
	}
	return models.CacheKey(principal, lookup.Version, queryHash), nil
}

// IsEnabled reports whether caching is enabled for the principal. Absent
// means enabled; so does a store failure. Disabling caching is a behavior
// change that must only ever happen explicitly.
func (m *Manager) IsEnabled(ctx context.Context, principal int64) (models.EnabledLookup, error) {
	if err := models.ValidatePrincipalID(principal); err != nil {
		return models.EnabledLookup{}, err
	}

	raw, err := m.store.Get(ctx, models.EnabledKey(principal))
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.EnabledLookup{Enabled: true, Outcome: models.OutcomeFresh}, nil
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "cache store unreachable reading enabled flag, defaulting to enabled",
			"principal_id", principal,
			"error", err,
		)
		if m.metrics != nil {
			m.metrics.IncrementReadDefaults()
		}
		return models.EnabledLookup{Enabled: true, Outcome: models.OutcomeDefaulted}, nil
	}

	enabled, parseErr := strconv.ParseBool(raw)
	if parseErr != nil {
		m.logger.WarnContext(ctx, "corrupt enabled flag, defaulting to enabled",
			"principal_id", principal,
			"value", raw,
		)
		return models.EnabledLookup{Enabled: true, Outcome: models.OutcomeRepaired}, nil
	}

	return models.EnabledLookup{Enabled: enabled, Outcome: models.OutcomeFresh}, nil
}

// SetEnabled persists the enabled flag with no expiry. This is an explicit
// administrative action, so store errors propagate.
func (m *Manager) SetEnabled(ctx context.Context, principal int64, enabled bool) error {
	if err := models.ValidatePrincipalID(principal); err != nil {
		return err
	}

	if err := m.store.Set(ctx, models.EnabledKey(principal), strconv.FormatBool(enabled), 0); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "cache store unreachable persisting enabled flag")
	}

	event := audit.EventCacheEnabled
	if !enabled {
		event = audit.EventCacheDisabled
	}
	ports.LogAudit(ctx, m.logger, m.auditPublisher, audit.CategoryOperations, string(event),
		"principal_id", principal,
	)

	return nil
}

func (m *Manager) defaultVersion(ctx context.Context, principal int64, cause error) models.VersionLookup {
	m.logger.ErrorContext(ctx, "cache store unreachable reading namespace version, defaulting to 1",
		"principal_id", principal,
		"error", cause,
	)
	if m.metrics != nil {
		m.metrics.IncrementReadDefaults()
	}
	return models.VersionLookup{Version: models.InitialVersion, Outcome: models.OutcomeDefaulted}
}

// repairVersion overwrites a corrupt version value with the initial version.
// A foreign value at the version key would otherwise propagate into every
// key prefix built for the principal.
func (m *Manager) repairVersion(ctx context.Context, principal int64, key, raw string) models.VersionLookup {
	m.logger.WarnContext(ctx, "corrupt namespace version, repairing to 1",
		"principal_id", principal,
		"value", raw,
	)
	if err := m.store.Set(ctx, key, strconv.FormatInt(models.InitialVersion, 10), 0); err != nil {
		return m.defaultVersion(ctx, principal, err)
	}
	return models.VersionLookup{Version: models.InitialVersion, Outcome: models.OutcomeRepaired}
}
