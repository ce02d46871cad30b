package status

// CanSendOffer reports whether an offer may be sent for a booking in
// the given state. Re-sending an already sent offer is blocked.
func CanSendOffer(s BookingStatus) bool {
	switch Normalize(s) {
	case Reserved, OfferPrepared:
		return true
	default:
		return false
	}
}

// CanCreateInvoice reports whether an invoice may be created. A
// prepared but unsent offer can be invoiced directly, so OfferPrepared
// satisfies both predicates at once. That overlap is policy.
func CanCreateInvoice(s BookingStatus) bool {
	switch Normalize(s) {
	case OfferSent, OfferPrepared:
		return true
	default:
		return false
	}
}
