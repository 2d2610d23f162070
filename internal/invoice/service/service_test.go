package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"caseflow/internal/cachens/store/kv"
	"caseflow/internal/invoice/models"
	"caseflow/internal/invoice/sequence"
	"caseflow/internal/invoice/store/memory"
	dErrors "caseflow/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	kvStore  *kv.InMemoryStore
	invoices *memory.InMemoryStore
	svc      *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.kvStore = kv.NewInMemory()
	s.invoices = memory.New()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	gen, err := sequence.New(s.kvStore, s.invoices, sequence.WithLogger(logger))
	s.Require().NoError(err)

	s.svc, err = New(s.invoices, gen, WithLogger(logger))
	s.Require().NoError(err)
}

func (s *ServiceSuite) newInvoice(year int) models.Invoice {
	return models.Invoice{
		CustomerName: "Acme GmbH",
		Amount:       decimal.RequireFromString("149.90"),
		Currency:     "EUR",
		InvoiceDate:  time.Date(year, time.March, 15, 0, 0, 0, 0, time.UTC),
	}
}

func (s *ServiceSuite) TestCreate_AssignsNumber() {
	ctx := context.Background()

	created, err := s.svc.Create(ctx, s.newInvoice(2026))
	s.Require().NoError(err)
	s.Equal(int64(20260001), created.InvoiceNo)
	s.NotEqual(uuid.Nil, created.ID)
	s.False(created.CreatedAt.IsZero())

	second, err := s.svc.Create(ctx, s.newInvoice(2026))
	s.Require().NoError(err)
	s.Equal(int64(20260002), second.InvoiceNo)
}

func (s *ServiceSuite) TestCreate_RespectsExplicitNumber() {
	ctx := context.Background()

	inv := s.newInvoice(2026)
	inv.InvoiceNo = 20260042
	created, err := s.svc.Create(ctx, inv)
	s.Require().NoError(err)
	s.Equal(int64(20260042), created.InvoiceNo)

	// The sync after save raised the counter past the manual number, so
	// the next automatic number continues after it.
	next, err := s.svc.Create(ctx, s.newInvoice(2026))
	s.Require().NoError(err)
	s.Equal(int64(20260043), next.InvoiceNo)
}

func (s *ServiceSuite) TestCreate_DuplicateNumberConflicts() {
	ctx := context.Background()

	inv := s.newInvoice(2026)
	inv.InvoiceNo = 20260042
	_, err := s.svc.Create(ctx, inv)
	s.Require().NoError(err)

	dup := s.newInvoice(2026)
	dup.InvoiceNo = 20260042
	_, err = s.svc.Create(ctx, dup)
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCreate_Validation() {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*models.Invoice)
	}{
		{"missing customer name", func(i *models.Invoice) { i.CustomerName = " " }},
		{"negative amount", func(i *models.Invoice) { i.Amount = decimal.NewFromInt(-1) }},
		{"bad currency", func(i *models.Invoice) { i.Currency = "EURO" }},
		{"missing date", func(i *models.Invoice) { i.InvoiceDate = time.Time{} }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			inv := s.newInvoice(2026)
			tc.mutate(&inv)
			_, err := s.svc.Create(ctx, inv)
			s.Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func (s *ServiceSuite) TestGet() {
	ctx := context.Background()

	created, err := s.svc.Create(ctx, s.newInvoice(2026))
	s.Require().NoError(err)

	got, err := s.svc.Get(ctx, created.ID)
	s.NoError(err)
	s.Equal(created.InvoiceNo, got.InvoiceNo)
	s.True(created.Amount.Equal(got.Amount))

	_, err = s.svc.Get(ctx, uuid.New())
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListByYear() {
	ctx := context.Background()

	for range 3 {
		_, err := s.svc.Create(ctx, s.newInvoice(2026))
		s.Require().NoError(err)
	}
	_, err := s.svc.Create(ctx, s.newInvoice(2027))
	s.Require().NoError(err)

	invoices, err := s.svc.ListByYear(ctx, 2026)
	s.NoError(err)
	s.Len(invoices, 3)
	for i := 1; i < len(invoices); i++ {
		s.Greater(invoices[i].InvoiceNo, invoices[i-1].InvoiceNo)
	}

	_, err = s.svc.ListByYear(ctx, -1)
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
