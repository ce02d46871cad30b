package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gasthof/internal/models"

	"github.com/google/uuid"
)

const offerColumns = `id, reservation_id, property_id, client_name, client_email, period, status, created_at, updated_at`

func (db *DB) CreateOffer(ctx context.Context, offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	if offer.Status == "" {
		offer.Status = models.OfferStatusDraft
	}

	query := `INSERT INTO offers (` + offerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		offer.ID,
		offer.ReservationID,
		offer.PropertyID,
		offer.ClientName,
		offer.ClientEmail,
		offer.Period,
		offer.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	offer.CreatedAt = now
	offer.UpdatedAt = now
	return nil
}

func (db *DB) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ?`
	var o models.Offer
	err := db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.ReservationID, &o.PropertyID, &o.ClientName, &o.ClientEmail,
		&o.Period, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &o, nil
}

func (db *DB) UpdateOfferStatus(ctx context.Context, id string, offerStatus string) error {
	query := `UPDATE offers SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, offerStatus, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetAllOffers(ctx context.Context) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var o models.Offer
		err := rows.Scan(
			&o.ID, &o.ReservationID, &o.PropertyID, &o.ClientName, &o.ClientEmail,
			&o.Period, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}
