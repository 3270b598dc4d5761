package model

// ProofType classifies the traction evidence behind a pitch.
type ProofType string

const (
	ProofRevenue   ProofType = "revenue"
	ProofUsers     ProofType = "users"
	ProofCustomers ProofType = "customers"
	ProofIdea      ProofType = "idea"
)

// String returns the string representation of the proof type.
func (p ProofType) String() string {
	return string(p)
}

// IsValid checks whether the proof type is a known value.
func (p ProofType) IsValid() bool {
	switch p {
	case ProofRevenue, ProofUsers, ProofCustomers, ProofIdea:
		return true
	}
	return false
}

// PitchData holds the structured facts of a pitch.
type PitchData struct {
	CompanyName        string    `json:"companyName"`
	AmountRaising      int64     `json:"amountRaising"`
	EquityPercent      float64   `json:"equityPercent"`
	CompanyDescription string    `json:"companyDescription"`
	ProofType          ProofType `json:"proofType"`
	ProofValue         string    `json:"proofValue"`
	WhyNow             string    `json:"whyNow"`
}

// ImpliedValuation derives the company valuation from the ask. With no equity
// stated the ask is treated as a tenth of the valuation.
func (p PitchData) ImpliedValuation() float64 {
	if p.EquityPercent > 0 {
		return float64(p.AmountRaising) / (p.EquityPercent / 100)
	}
	return float64(p.AmountRaising) * 10
}
