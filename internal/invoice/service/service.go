// Package service implements invoice creation with year-scoped numbering.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	cacheports "caseflow/internal/cachens/ports"
	"caseflow/internal/invoice/metrics"
	"caseflow/internal/invoice/models"
	"caseflow/internal/invoice/ports"
	"caseflow/internal/invoice/sequence"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

// Store is the durable invoice store dependency.
type Store = ports.InvoiceStore

// Service creates and reads invoices.
type Service struct {
	store          Store
	sequences      *sequence.Generator
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher cacheports.AuditPublisher
	tracer         trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the Prometheus metrics.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = mx
	}
}

// WithAuditPublisher sets the audit publisher.
func WithAuditPublisher(publisher cacheports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs an invoice service.
func New(store Store, sequences *sequence.Generator, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("invoice store is required")
	}
	if sequences == nil {
		return nil, fmt.Errorf("sequence generator is required")
	}

	s := &Service{
		store:     store,
		sequences: sequences,
		logger:    slog.Default(),
		tracer:    otel.Tracer("caseflow/invoice"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create persists an invoice, assigning the next year-scoped number when the
// caller left InvoiceNo zero. After the write, the cached sequence counter is
// raised best-effort so a manually numbered invoice cannot cause a future
// duplicate.
func (s *Service) Create(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.Create")
	defer span.End()

	start := time.Now()

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = requestcontext.Now(ctx)
	}
	if err := inv.Validate(); err != nil {
		return models.Invoice{}, err
	}

	if inv.InvoiceNo == 0 {
		no, err := s.sequences.NextInvoiceNo(ctx, inv.Year())
		if err != nil {
			return models.Invoice{}, err
		}
		inv.InvoiceNo = no
	}

	if err := s.store.Create(ctx, inv); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncrementNumberConflicts()
			}
			return models.Invoice{}, dErrors.Wrap(err, dErrors.CodeConflict, "invoice number already in use")
		}
		return models.Invoice{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "invoice store unreachable")
	}

	s.sequences.SyncAfterSave(ctx, inv)

	if s.metrics != nil {
		s.metrics.IncrementCreated()
		s.metrics.ObserveCreateMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}
	cacheports.LogAudit(ctx, s.logger, s.auditPublisher, audit.CategoryBilling, string(audit.EventInvoiceCreated),
		"invoice_id", inv.ID.String(),
		"invoice_no", inv.InvoiceNo,
		"year", inv.Year(),
	)

	return inv, nil
}

// Get returns an invoice by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Invoice{}, dErrors.Wrap(err, dErrors.CodeNotFound, "invoice not found")
		}
		return models.Invoice{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "invoice store unreachable")
	}
	return inv, nil
}

// ListByYear returns the invoices issued in a year, ordered by number.
func (s *Service) ListByYear(ctx context.Context, year int) ([]models.Invoice, error) {
	if year <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "year must be positive")
	}
	invoices, err := s.store.ListByYear(ctx, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "invoice store unreachable")
	}
	return invoices, nil
}
