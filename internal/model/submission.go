// Package model defines the pitch submission, analysis, and record types
// shared by the scoring engine, the record store, and the HTTP API.
package model

// Financials is the P&L and KPI block of a submission. Percent fields (CVR,
// Churn) are in percentage units: 5 means 5%.
type Financials struct {
	Revenue   Number `json:"revenue"`
	COGS      Number `json:"cogs"`
	FixedCost Number `json:"fixedCost"`
	AdCost    Number `json:"adCost"`
	CV        Number `json:"cv"`
	CVR       Number `json:"cvr"`
	Price     Number `json:"price"`
	CPA       Number `json:"cpa"`
	LTV       Number `json:"ltv"`
	Churn     Number `json:"churn"`
}

// Normalize returns a copy with every non-finite value replaced by 0.
func (f Financials) Normalize() Financials {
	return Financials{
		Revenue:   Number(f.Revenue.Float()),
		COGS:      Number(f.COGS.Float()),
		FixedCost: Number(f.FixedCost.Float()),
		AdCost:    Number(f.AdCost.Float()),
		CV:        Number(f.CV.Float()),
		CVR:       Number(f.CVR.Float()),
		Price:     Number(f.Price.Float()),
		CPA:       Number(f.CPA.Float()),
		LTV:       Number(f.LTV.Float()),
		Churn:     Number(f.Churn.Float()),
	}
}

// Submission is the raw business plan a founder submits for analysis.
type Submission struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Industry    string     `json:"industry"`
	Phase       string     `json:"phase"`
	CompanyName string     `json:"company_name,omitempty"`
	PL          Financials `json:"pl"`
}
