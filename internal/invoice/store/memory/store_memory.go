// Package memory provides an in-memory invoice store for tests and local
// development.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"caseflow/internal/invoice/models"
	"caseflow/pkg/platform/sentinel"
)

// InMemoryStore keeps invoices in a map guarded by a mutex. It enforces the
// same invoice_no uniqueness the Postgres store gets from its unique index.
type InMemoryStore struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]models.Invoice
	byNumber map[int64]uuid.UUID
}

// New constructs an empty in-memory invoice store.
func New() *InMemoryStore {
	return &InMemoryStore{
		invoices: make(map[uuid.UUID]models.Invoice),
		byNumber: make(map[int64]uuid.UUID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, inv models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return sentinel.ErrConflict
	}
	if inv.InvoiceNo != 0 {
		if _, exists := s.byNumber[inv.InvoiceNo]; exists {
			return sentinel.ErrConflict
		}
	}

	s.invoices[inv.ID] = inv
	if inv.InvoiceNo != 0 {
		s.byNumber[inv.InvoiceNo] = inv.ID
	}
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id uuid.UUID) (models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return models.Invoice{}, sentinel.ErrNotFound
	}
	return inv, nil
}

func (s *InMemoryStore) ListByYear(_ context.Context, year int) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Invoice
	for _, inv := range s.invoices {
		if inv.InvoiceDate.Year() == year {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNo < out[j].InvoiceNo })
	return out, nil
}

func (s *InMemoryStore) MaxInvoiceNoForYear(_ context.Context, year int) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strconv.Itoa(year)
	var max int64
	found := false
	for no := range s.byNumber {
		if !strings.HasPrefix(strconv.FormatInt(no, 10), prefix) {
			continue
		}
		if !found || no > max {
			max = no
			found = true
		}
	}
	return max, found, nil
}
