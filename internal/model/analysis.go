package model

// Rank is the coarse letter grade derived from a composite score.
type Rank string

const (
	RankS Rank = "S"
	RankA Rank = "A"
	RankB Rank = "B"
	RankC Rank = "C"
	RankD Rank = "D"
)

// Subscores are the four 0-100 components of the composite score.
type Subscores struct {
	FinanceFit int `json:"financeFit"`
	Viability  int `json:"viability"`
	GoToMarket int `json:"goToMarket"`
	Risk       int `json:"risk"`
}

// KPI holds the derived unit economics. GrossMargin is in percent. BreakEvenCV
// is nil when per-conversion profit after ads is not positive.
type KPI struct {
	GrossProfit         int64   `json:"grossProfit"`
	GrossMargin         float64 `json:"grossMargin"`
	UnitCost            float64 `json:"unitCost"`
	Contribution        float64 `json:"contribution"`
	LTVToCAC            float64 `json:"ltvToCac"`
	PaybackMonths       float64 `json:"paybackMonths"`
	PerCVProfitAfterAds float64 `json:"perCVProfitAfterAds"`
	BreakEvenCV         *int64  `json:"breakEvenCV"`
}

// Analysis is the engine output for one submission. It is computed per
// request and never stored as a whole; only Score is copied onto a record.
type Analysis struct {
	Score        int       `json:"score"`
	Rank         Rank      `json:"rank"`
	Subscores    Subscores `json:"subscores"`
	KPI          KPI       `json:"kpi"`
	Strengths    []string  `json:"strengths"`
	Risks        []string  `json:"risks"`
	Improvements []string  `json:"improvements"`
	Advice       []string  `json:"advice"`
	Sanity       []string  `json:"sanity"`
	Summary      string    `json:"summary"`
}
