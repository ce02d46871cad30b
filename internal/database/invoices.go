package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gasthof/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, offer_id_source, booking_id, status, amount, currency, proforma, created_at, updated_at`

func (db *DB) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.Status == "" {
		invoice.Status = models.InvoiceStatusUnpaid
	}
	if invoice.Currency == "" {
		invoice.Currency = "EUR"
	}

	query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		invoice.ID,
		invoice.OfferIDSource,
		invoice.BookingID,
		invoice.Status,
		invoice.Amount.String(),
		invoice.Currency,
		invoice.Proforma,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	return nil
}

func (db *DB) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	inv, err := scanInvoice(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

func (db *DB) UpdateInvoiceStatus(ctx context.Context, id string, invoiceStatus string) error {
	query := `UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, invoiceStatus, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetInvoicesByOffer(ctx context.Context, offerID string) ([]models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE offer_id_source = ? ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoices by offer: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var amountStr string
	err := row.Scan(
		&inv.ID, &inv.OfferIDSource, &inv.BookingID, &inv.Status,
		&amountStr, &inv.Currency, &inv.Proforma, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice amount %s: %w", amountStr, err)
	}
	return &inv, nil
}
