package domain

// BreakdownItem is one line of a premium breakdown.
type BreakdownItem struct {
	Label  string  `json:"label,omitempty"`
	Code   string  `json:"code,omitempty"`
	Amount float64 `json:"amount"`
}

// Breakdown is the itemized premium section of a quote preview.
type Breakdown struct {
	Items        []BreakdownItem `json:"items,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	TotalPremium float64         `json:"totalPremium,omitempty"`
	SumInsured   float64         `json:"sumInsured,omitempty"`
}

// QuotePreview is the computed, not-yet-finalized quote returned by the
// quoting backend. Some backend versions report the total and risk score at
// the top level instead of inside the breakdown, so both placements are kept.
type QuotePreview struct {
	Breakdown    Breakdown `json:"breakdown"`
	TotalPremium float64   `json:"totalPremium,omitempty"`
	RiskScore    float64   `json:"riskScore,omitempty"`
}

// Total returns the total premium regardless of where the backend placed it.
func (p *QuotePreview) Total() float64 {
	if p.Breakdown.TotalPremium != 0 {
		return p.Breakdown.TotalPremium
	}
	return p.TotalPremium
}

// QuoteReceipt is the result of a create-and-email call.
type QuoteReceipt struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}
