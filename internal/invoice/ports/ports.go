// Package ports defines shared interfaces for the invoice module.
//
//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks
package ports

import (
	"context"

	"github.com/google/uuid"

	"caseflow/internal/invoice/models"
)

// InvoiceStore is the durable invoice record store.
//
// Create returns sentinel.ErrConflict when an invoice with the same number
// already exists; the unique constraint on invoice_no is the last line of
// defense against duplicate numbering. GetByID returns sentinel.ErrNotFound
// for unknown ids. MaxInvoiceNoForYear reports the highest invoice number
// whose decimal string form starts with the year, and false when the year
// has no invoices yet.
type InvoiceStore interface {
	Create(ctx context.Context, inv models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (models.Invoice, error)
	ListByYear(ctx context.Context, year int) ([]models.Invoice, error)
	MaxInvoiceNoForYear(ctx context.Context, year int) (int64, bool, error)
}
