package models

import "time"

// DerivedStatus is the cached result of a status derivation for an
// offer stripe, including the presentation style tokens.
type DerivedStatus struct {
	OfferID         string    `json:"offer_id"`
	Status          string    `json:"status"`
	Fill            string    `json:"fill"`
	Border          string    `json:"border"`
	UsedIDFallback  bool      `json:"used_id_fallback"`
	SourceInvoiceID string    `json:"source_invoice_id,omitempty"`
	DerivedAt       time.Time `json:"derived_at"`
}
