// Package models holds the invoice domain types.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "caseflow/pkg/domain-errors"
)

// Invoice is a billed document. InvoiceNo is the externally visible number:
// the issuing year concatenated with a zero-padded per-year sequence, e.g.
// 20260001. Numbers issued before year scoping was introduced are bare
// sequences with no year prefix.
type Invoice struct {
	ID           uuid.UUID       `json:"id"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	InvoiceDate  time.Time       `json:"invoice_date"`
	InvoiceNo    int64           `json:"invoice_no"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks the fields a caller must supply. InvoiceNo is allowed to
// be zero; the service assigns it at creation time.
func (i Invoice) Validate() error {
	if strings.TrimSpace(i.CustomerName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "customer name is required")
	}
	if i.Amount.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative")
	}
	if len(i.Currency) != 3 {
		return dErrors.New(dErrors.CodeInvalidInput, "currency must be a 3-letter code")
	}
	if i.InvoiceDate.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "invoice date is required")
	}
	if i.InvoiceNo < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "invoice number must not be negative")
	}
	return nil
}

// Year returns the issuing year the sequence is scoped to.
func (i Invoice) Year() int {
	return i.InvoiceDate.Year()
}
