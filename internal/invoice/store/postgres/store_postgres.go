// Package postgres persists invoices in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"caseflow/internal/invoice/models"
	"caseflow/pkg/platform/sentinel"
)

// Store persists invoices in PostgreSQL. The invoices table carries a unique
// index on invoice_no, which is the durable backstop against duplicate
// numbering when the cached sequence counter misbehaves.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed invoice store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func (s *Store) Create(ctx context.Context, inv models.Invoice) error {
	query := `
		INSERT INTO invoices (id, customer_name, amount, currency, invoice_date, invoice_no, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		inv.ID,
		inv.CustomerName,
		inv.Amount,
		inv.Currency,
		inv.InvoiceDate,
		inv.InvoiceNo,
		inv.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	query := `
		SELECT id, customer_name, amount, currency, invoice_date, invoice_no, created_at
		FROM invoices
		WHERE id = $1
	`
	var inv models.Invoice
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID,
		&inv.CustomerName,
		&inv.Amount,
		&inv.Currency,
		&inv.InvoiceDate,
		&inv.InvoiceNo,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invoice{}, sentinel.ErrNotFound
		}
		return models.Invoice{}, fmt.Errorf("get invoice by id: %w", err)
	}
	return inv, nil
}

func (s *Store) ListByYear(ctx context.Context, year int) ([]models.Invoice, error) {
	query := `
		SELECT id, customer_name, amount, currency, invoice_date, invoice_no, created_at
		FROM invoices
		WHERE date_part('year', invoice_date) = $1
		ORDER BY invoice_no
	`
	rows, err := s.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("list invoices by year: %w", err)
	}
	defer rows.Close()

	var out []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(
			&inv.ID,
			&inv.CustomerName,
			&inv.Amount,
			&inv.Currency,
			&inv.InvoiceDate,
			&inv.InvoiceNo,
			&inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invoice row: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice rows: %w", err)
	}
	return out, nil
}

// MaxInvoiceNoForYear matches numbers by decimal string prefix, not by date:
// the number itself carries the year it was issued under, and legacy bare
// numbers must not be attributed to the current year.
func (s *Store) MaxInvoiceNoForYear(ctx context.Context, year int) (int64, bool, error) {
	query := `
		SELECT MAX(invoice_no)
		FROM invoices
		WHERE invoice_no::text LIKE $1
	`
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, strconv.Itoa(year)+"%").Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("max invoice number for year: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}
