package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"caseflow/internal/invoice/models"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// Service defines the invoice operations the handlers need.
type Service interface {
	Create(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (models.Invoice, error)
	ListByYear(ctx context.Context, year int) ([]models.Invoice, error)
}

// Handler wires invoice endpoints to the invoice service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an invoice handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts invoice endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/invoices", h.HandleCreate)
	r.Get("/invoices", h.HandleList)
	r.Get("/invoices/{invoiceID}", h.HandleGet)
}

// HandleCreate handles POST /invoices requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	inv, err := req.ToInvoice()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Create(ctx, inv)
	if err != nil {
		h.logger.ErrorContext(ctx, "invoice creation failed",
			"request_id", requestID,
			"customer_name", req.CustomerName,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "invoice created",
		"request_id", requestID,
		"invoice_id", created.ID,
		"invoice_no", created.InvoiceNo,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromInvoice(created))
}

// HandleGet handles GET /invoices/{invoiceID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid invoice id"))
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromInvoice(inv))
}

// HandleList handles GET /invoices?year=YYYY requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "year query parameter is required"))
		return
	}

	invoices, err := h.service.ListByYear(r.Context(), year)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, FromInvoice(inv))
	}
	httputil.WriteJSON(w, http.StatusOK, ListInvoicesResponse{Invoices: out})
}
