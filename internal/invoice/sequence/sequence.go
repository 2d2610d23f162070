// Package sequence issues year-scoped invoice numbers.
//
// The last issued sequence for a year lives in the cache store under
// invoice_last_seq:{year}; the durable invoice table is the recovery source
// when the cached counter is missing or stale. An atomic increment on the
// cached counter is the fast path; every fallback re-derives the counter
// from the highest invoice number already persisted, so counter loss can
// never reissue a number that a stored invoice holds.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	ports "caseflow/internal/cachens/ports"
	"caseflow/internal/invoice/models"
	invoiceports "caseflow/internal/invoice/ports"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
)

const (
	seqKeyPrefix = "invoice_last_seq:"

	// A year's counter only matters while that year's invoices are being
	// issued; 30 days of idleness means the cache can forget it and the
	// next issue re-primes from the durable store.
	seqTTL = 30 * 24 * time.Hour
)

// SeqKey returns the cache key holding the last issued sequence for a year.
func SeqKey(year int) string {
	return seqKeyPrefix + strconv.Itoa(year)
}

// Generator issues per-year invoice sequences.
type Generator struct {
	store    ports.KeyValueStore
	invoices invoiceports.InvoiceStore
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New constructs a sequence generator over the cache store and the durable
// invoice store.
func New(store ports.KeyValueStore, invoices invoiceports.InvoiceStore, opts ...Option) (*Generator, error) {
	if store == nil {
		return nil, fmt.Errorf("key-value store is required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice store is required")
	}

	g := &Generator{
		store:    store,
		invoices: invoices,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NextInvoiceNo returns the next invoice number for the year. The sequence
// part is atomically incremented in the cache store; when the counter is
// absent or the store misbehaves, it is re-primed from the highest persisted
// invoice number for the year. Only a durable-store failure propagates.
func (g *Generator) NextInvoiceNo(ctx context.Context, year int) (int64, error) {
	if year <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "year must be positive")
	}
	key := SeqKey(year)

	seq, err := g.store.Incr(ctx, key)
	if err == nil {
		return ComposeInvoiceNo(year, seq)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		g.logger.WarnContext(ctx, "cached sequence increment failed, repriming from invoice store",
			"year", year,
			"error", err,
		)
	}

	last, err := g.lastPersistedSequence(ctx, year)
	if err != nil {
		return 0, err
	}

	// Losing the add race is fine: whoever won has already primed the
	// counter, and the retried increment lands on their value.
	if _, addErr := g.store.Add(ctx, key, strconv.FormatInt(last, 10), seqTTL); addErr != nil {
		g.logger.WarnContext(ctx, "priming cached sequence failed",
			"year", year,
			"error", addErr,
		)
	}

	seq, incrErr := g.store.Incr(ctx, key)
	if incrErr != nil {
		// Cache store is out of the picture; issue straight off the
		// durable high-water mark.
		g.logger.ErrorContext(ctx, "cache store unusable for sequence, issuing from invoice store",
			"year", year,
			"error", incrErr,
		)
		return ComposeInvoiceNo(year, last+1)
	}

	return ComposeInvoiceNo(year, seq)
}

// SyncAfterSave raises the cached counter to at least the saved invoice's
// sequence. It never lowers the counter, and every failure is logged and
// swallowed: the invoice is already durably numbered, the counter is only
// an optimization.
func (g *Generator) SyncAfterSave(ctx context.Context, inv models.Invoice) {
	if inv.InvoiceNo <= 0 {
		return
	}
	year := inv.Year()
	seq := ExtractSequence(inv.InvoiceNo, year)
	key := SeqKey(year)

	if won, err := g.store.Add(ctx, key, strconv.FormatInt(seq, 10), seqTTL); err != nil {
		g.logger.WarnContext(ctx, "sequence sync add failed", "year", year, "error", err)
		return
	} else if won {
		return
	}

	raw, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.WarnContext(ctx, "sequence sync read failed", "year", year, "error", err)
		return
	}
	current, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		g.logger.WarnContext(ctx, "sequence sync found corrupt counter", "year", year, "value", raw)
		return
	}
	if current >= seq {
		return
	}
	if err := g.store.Set(ctx, key, strconv.FormatInt(seq, 10), seqTTL); err != nil {
		g.logger.WarnContext(ctx, "sequence sync write failed", "year", year, "error", err)
	}
}

// lastPersistedSequence derives the last issued sequence for a year from the
// durable store. Zero when the year has no invoices yet.
func (g *Generator) lastPersistedSequence(ctx context.Context, year int) (int64, error) {
	maxNo, found, err := g.invoices.MaxInvoiceNoForYear(ctx, year)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "invoice store unreachable deriving sequence")
	}
	if !found {
		return 0, nil
	}
	return ExtractSequence(maxNo, year), nil
}

// ComposeInvoiceNo builds the externally visible invoice number: the year
// followed by the sequence zero-padded to 4 digits. Sequences past 9999
// concatenate at their natural width, so 2026 sequence 10000 becomes
// 202610000.
func ComposeInvoiceNo(year int, seq int64) (int64, error) {
	no, err := strconv.ParseInt(fmt.Sprintf("%d%04d", year, seq), 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "composed invoice number overflows")
	}
	return no, nil
}

// ExtractSequence recovers the sequence part from an invoice number. Numbers
// whose decimal form starts with the year string have the prefix stripped;
// anything else is a legacy bare sequence and is returned whole. A legacy
// number that happens to start with the year digits is indistinguishable
// from a year-scoped one and is treated as year-scoped.
func ExtractSequence(invoiceNo int64, year int) int64 {
	s := strconv.FormatInt(invoiceNo, 10)
	prefix := strconv.Itoa(year)
	if !strings.HasPrefix(s, prefix) {
		return invoiceNo
	}
	suffix := s[len(prefix):]
	if suffix == "" {
		return 0
	}
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return invoiceNo
	}
	return seq
}
