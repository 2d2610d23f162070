package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"caseflow/internal/invoice/models"
	dErrors "caseflow/pkg/domain-errors"
)

// CreateInvoiceRequest is the POST /invoices body. InvoiceNo is optional;
// zero means the service assigns the next year-scoped number.
type CreateInvoiceRequest struct {
	CustomerName string `json:"customer_name"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	InvoiceDate  string `json:"invoice_date"`
	InvoiceNo    int64  `json:"invoice_no,omitempty"`
}

// ToInvoice parses the wire fields into a domain invoice. Field-level
// validation happens in the service.
func (r CreateInvoiceRequest) ToInvoice() (models.Invoice, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.Invoice{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be a decimal number")
	}
	date, err := time.Parse("2006-01-02", r.InvoiceDate)
	if err != nil {
		return models.Invoice{}, dErrors.New(dErrors.CodeInvalidInput, "invoice date must be YYYY-MM-DD")
	}
	return models.Invoice{
		CustomerName: r.CustomerName,
		Amount:       amount,
		Currency:     r.Currency,
		InvoiceDate:  date,
		InvoiceNo:    r.InvoiceNo,
	}, nil
}
