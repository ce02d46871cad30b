package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice references the offer it was generated from. BookingID may be
// empty for legacy rows; resolution then falls back to the offer id.
type Invoice struct {
	ID            string          `json:"id"`
	OfferIDSource string          `json:"offer_id_source"`
	BookingID     string          `json:"booking_id"`
	Status        string          `json:"status"` // paid, unpaid
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Proforma      bool            `json:"proforma"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
