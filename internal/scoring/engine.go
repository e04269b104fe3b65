package scoring

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/pitchscore/internal/config"
	"github.com/sells-group/pitchscore/internal/model"
)

// Engine scores submissions against an immutable policy. It is safe for
// concurrent use.
type Engine struct {
	cfg config.ScoringConfig
}

// New validates cfg and returns an engine bound to it.
func New(cfg config.ScoringConfig) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.RankThresholds = append([]config.RankThreshold(nil), cfg.RankThresholds...)
	return &Engine{cfg: cfg}, nil
}

// FromConfig builds an engine from the application config, overlaying
// cfg.PolicyFile when set.
func FromConfig(cfg config.ScoringConfig) (*Engine, error) {
	if cfg.PolicyFile != "" {
		loaded, err := LoadPolicyFile(cfg.PolicyFile, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return New(cfg)
}

var defaultEngine = func() *Engine {
	e, err := New(config.DefaultScoringConfig())
	if err != nil {
		panic(err)
	}
	return e
}()

// Default returns the engine running the canonical policy.
func Default() *Engine { return defaultEngine }

// Analyze scores sub with the canonical policy.
func Analyze(sub model.Submission) model.Analysis {
	return defaultEngine.Analyze(sub)
}

// Policy returns a copy of the engine's scoring policy.
func (e *Engine) Policy() config.ScoringConfig {
	cfg := e.cfg
	cfg.RankThresholds = append([]config.RankThreshold(nil), e.cfg.RankThresholds...)
	return cfg
}

// metrics holds the raw inputs and every derived figure, unrounded.
type metrics struct {
	revenue, cogs, fixedCost, adCost float64
	cv, cvr, price, cpa, ltv, churn  float64

	grossProfit   float64
	grossMargin   float64 // fraction
	unitCost      float64
	contribution  float64
	ltvToCac      float64
	paybackMonths float64
	perCV         float64
	breakEvenCV   float64 // +Inf when per-conversion economics are non-positive

	adCostRatio     float64 // fraction
	expectedRevenue float64
	consistency     float64 // percent
}

func derive(f model.Financials) metrics {
	f = f.Normalize()
	m := metrics{
		revenue:   f.Revenue.Float(),
		cogs:      f.COGS.Float(),
		fixedCost: f.FixedCost.Float(),
		adCost:    f.AdCost.Float(),
		cv:        f.CV.Float(),
		cvr:       f.CVR.Float(),
		price:     f.Price.Float(),
		cpa:       f.CPA.Float(),
		ltv:       f.LTV.Float(),
		churn:     f.Churn.Float(),
	}

	if m.cv > 0 {
		m.unitCost = m.cogs / m.cv
	}
	m.contribution = m.price - m.unitCost
	m.grossProfit = m.revenue - m.cogs - m.adCost
	if m.revenue > 0 {
		m.grossMargin = m.grossProfit / m.revenue
		m.adCostRatio = m.adCost / m.revenue
	}
	if m.cpa > 0 {
		m.ltvToCac = m.ltv / m.cpa
	}
	if m.ltv > 0 {
		m.paybackMonths = m.cpa / m.ltv * 12
	}
	m.perCV = m.contribution - m.cpa

	m.breakEvenCV = math.Inf(1)
	if m.perCV > 0 {
		m.breakEvenCV = math.Ceil(m.fixedCost / m.perCV)
	}

	m.expectedRevenue = m.cv * m.price
	m.consistency = 50
	if m.expectedRevenue > 0 {
		m.consistency = math.Max(0, 100-math.Abs(m.revenue-m.expectedRevenue)/m.expectedRevenue*100)
		if math.IsNaN(m.consistency) {
			m.consistency = 0
		}
	}

	return m
}

// Analyze runs the full scoring pipeline on sub. It never fails: absent or
// non-numeric figures have already decoded to 0.
func (e *Engine) Analyze(sub model.Submission) model.Analysis {
	m := derive(sub.PL)
	c := e.cfg

	financeFit := clamp(c.FinanceBase + (m.grossMargin-c.FinanceMarginRef)*c.FinanceMarginSlope)
	viability := clamp(c.ViabilityBase + (m.ltvToCac-c.ViabilityLTVCACRef)*c.ViabilityLTVCACSlope)
	goToMarket := clamp(c.GoToMarketBase + (m.cvr-c.GoToMarketCVRRef)*c.GoToMarketCVRSlope)
	risk := clamp(c.RiskBase - m.churn*c.RiskChurnSlope)

	total := c.FinanceFitWeight*financeFit +
		c.ViabilityWeight*viability +
		c.GoToMarketWeight*goToMarket +
		c.RiskWeight*risk
	// Weights are relative; a set that does not sum to 1 is rescaled.
	if sum := WeightSum(c); math.Abs(sum-1) > 1e-9 {
		total /= sum
	}
	score := model.ClampScore(total)

	p := message.NewPrinter(language.English)
	adv := e.advise(m)

	return model.Analysis{
		Score: score,
		Rank:  e.RankFor(score),
		Subscores: model.Subscores{
			FinanceFit: int(math.Round(financeFit)),
			Viability:  int(math.Round(viability)),
			GoToMarket: int(math.Round(goToMarket)),
			Risk:       int(math.Round(risk)),
		},
		KPI:          kpi(m),
		Strengths:    adv.strengths,
		Risks:        adv.risks,
		Improvements: adv.improvements,
		Advice:       adv.advice,
		Sanity:       sanityLines(p, m),
		Summary:      summarize(p, sub, m),
	}
}

// RankFor maps a total score to a rank using the descending threshold table.
func (e *Engine) RankFor(score int) model.Rank {
	for _, rt := range e.cfg.RankThresholds {
		if score >= rt.MinScore {
			return model.Rank(rt.Rank)
		}
	}
	return model.Rank(e.cfg.RankFloor)
}

func kpi(m metrics) model.KPI {
	k := model.KPI{
		GrossProfit:         saturateInt64(math.Round(m.grossProfit)),
		GrossMargin:         round2(m.grossMargin * 100),
		UnitCost:            round2(m.unitCost),
		Contribution:        round2(m.contribution),
		LTVToCAC:            round2(m.ltvToCac),
		PaybackMonths:       round2(m.paybackMonths),
		PerCVProfitAfterAds: round2(m.perCV),
	}
	if m.perCV > 0 {
		be := saturateInt64(m.breakEvenCV)
		k.BreakEvenCV = &be
	}
	return k
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// round2 rounds to two decimals. Overflowed figures report as 0.
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func saturateInt64(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}
