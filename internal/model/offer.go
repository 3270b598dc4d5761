package model

// OfferStatus is the lifecycle state of an offer.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferDeclined  OfferStatus = "declined"
	OfferCountered OfferStatus = "countered"
)

// String returns the string representation of the status.
func (s OfferStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferPending, OfferAccepted, OfferDeclined, OfferCountered:
		return true
	}
	return false
}

// Offer is a shark's proposed investment terms.
type Offer struct {
	ID           string      `json:"id"`
	SharkID      string      `json:"sharkId"`
	SharkName    string      `json:"sharkName"`
	Amount       int64       `json:"amount"`
	Equity       float64     `json:"equity"`
	Royalty      *float64    `json:"royalty,omitempty"`      // per-unit amount
	RoyaltyUntil *int64      `json:"royaltyUntil,omitempty"` // cap amount
	Conditions   []string    `json:"conditions"`
	Status       OfferStatus `json:"status"`
	Timestamp    int64       `json:"timestamp"` // unix millis
}

// CounterOffer is a user-proposed alternative to a pending offer.
type CounterOffer struct {
	ID        string       `json:"id"`
	OfferID   string       `json:"offerId"`
	Terms     CounterTerms `json:"terms"`
	Timestamp int64        `json:"timestamp"` // unix millis
}

// CounterTerms are the concrete terms of a counter-offer.
type CounterTerms struct {
	Amount int64   `json:"amount"`
	Equity float64 `json:"equity"`
}

// IsZero reports whether no terms were provided.
func (t CounterTerms) IsZero() bool {
	return t.Amount == 0 && t.Equity == 0
}
