package handler

import (
	"time"

	"caseflow/internal/invoice/models"
)

// InvoiceResponse is the wire form of an invoice.
type InvoiceResponse struct {
	ID           string `json:"id"`
	CustomerName string `json:"customer_name"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	InvoiceDate  string `json:"invoice_date"`
	InvoiceNo    int64  `json:"invoice_no"`
	CreatedAt    string `json:"created_at"`
}

// ListInvoicesResponse wraps a year's invoices.
type ListInvoicesResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
}

// FromInvoice converts a domain invoice to its wire form.
func FromInvoice(inv models.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:           inv.ID.String(),
		CustomerName: inv.CustomerName,
		Amount:       inv.Amount.String(),
		Currency:     inv.Currency,
		InvoiceDate:  inv.InvoiceDate.Format("2006-01-02"),
		InvoiceNo:    inv.InvoiceNo,
		CreatedAt:    inv.CreatedAt.Format(time.RFC3339),
	}
}
