package scoring

import "fmt"

// Fallback advice when no risk rule fires.
const healthyAdvice = "Core metrics look healthy. Consider scaling acquisition while watching unit economics."

type adviceSet struct {
	strengths    []string
	risks        []string
	improvements []string
	advice       []string
}

// riskRule pairs a risk message with the corrective action it implies.
type riskRule struct {
	fires       func(m metrics) bool
	risk        string
	improvement string
}

func (e *Engine) riskRules() []riskRule {
	c := e.cfg
	return []riskRule{
		{
			fires:       func(m metrics) bool { return m.grossMargin < c.ThinMarginBelow },
			risk:        fmt.Sprintf("Gross margin is below %.0f%%. The cost structure is too thin to absorb growth; revisit pricing or cost of goods.", c.ThinMarginBelow*100),
			improvement: "Raise prices or renegotiate supplier costs to widen gross margin.",
		},
		{
			fires:       func(m metrics) bool { return m.ltvToCac < c.WeakLTVCACBelow },
			risk:        fmt.Sprintf("LTV/CAC is below %.1f. Acquisition is inefficient or retention is weak.", c.WeakLTVCACBelow),
			improvement: "Raise LTV through retention and upsell, or cut CAC by tightening ad targeting.",
		},
		{
			fires:       func(m metrics) bool { return m.perCV <= 0 },
			risk:        "Each conversion loses money once ad spend is counted.",
			improvement: "Lower CPA or raise per-unit contribution until each conversion pays back its ad spend.",
		},
		{
			fires:       func(m metrics) bool { return m.churn >= c.HighChurnAtLeast },
			risk:        fmt.Sprintf("Monthly churn is %.0f%% or higher. Retention is a problem.", c.HighChurnAtLeast),
			improvement: "Invest in onboarding and customer success to bring monthly churn down.",
		},
	}
}

// advise evaluates the rule list in fixed order. Every bucket is non-nil.
func (e *Engine) advise(m metrics) adviceSet {
	c := e.cfg
	out := adviceSet{
		strengths:    []string{},
		risks:        []string{},
		improvements: []string{},
		advice:       []string{},
	}

	for _, r := range e.riskRules() {
		if r.fires(m) {
			out.risks = append(out.risks, r.risk)
			out.improvements = append(out.improvements, r.improvement)
		}
	}

	if m.grossMargin >= c.StrongMarginAtLeast {
		out.strengths = append(out.strengths, fmt.Sprintf("Gross margin of %.1f%% indicates a healthy cost structure.", m.grossMargin*100))
	}
	if m.ltvToCac >= c.StrongLTVCACAtLeast {
		out.strengths = append(out.strengths, fmt.Sprintf("LTV/CAC of %.2f shows efficient acquisition.", m.ltvToCac))
	}
	if m.perCV > 0 {
		out.strengths = append(out.strengths, "Unit economics stay positive after ad spend.")
	}

	if m.adCostRatio > c.AdDependencyAbove {
		out.improvements = append(out.improvements, "Reduce ad dependency by growing repeat and referral revenue.")
	}
	if m.expectedRevenue > 0 && m.consistency < c.ConsistencyBelow {
		out.improvements = append(out.improvements, "Re-examine CV, price and revenue accounting: CV × price does not reconcile with reported revenue.")
	}

	if len(out.risks) == 0 {
		out.advice = append(out.advice, healthyAdvice)
	} else {
		out.advice = append(out.advice, out.risks...)
	}
	return out
}
