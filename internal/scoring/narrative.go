package scoring

import (
	"math"
	"strings"

	"golang.org/x/text/message"

	"github.com/sells-group/pitchscore/internal/model"
)

const noBreakEven = "—"

// sanityLines restates the key figures for human review.
func sanityLines(p *message.Printer, m metrics) []string {
	breakEven := noBreakEven
	if m.perCV > 0 {
		breakEven = p.Sprintf("%d", saturateInt64(m.breakEvenCV))
	}

	return []string{
		p.Sprintf("Revenue %d vs. expected %d (CV × price), consistency %.0f%%.",
			whole(m.revenue), whole(m.expectedRevenue), m.consistency),
		p.Sprintf("Break-even CV %s, gross margin %.2f%%, ad-cost ratio %.2f%%.",
			breakEven, round2(m.grossMargin*100), round2(m.adCostRatio*100)),
		p.Sprintf("LTV/CAC %.2f, payback %.2f months, monthly churn %.2f%%.",
			round2(m.ltvToCac), round2(m.paybackMonths), round2(m.churn)),
	}
}

// summarize returns the caller's summary, or a synthesized one when blank.
func summarize(p *message.Printer, sub model.Submission, m metrics) string {
	if s := strings.TrimSpace(sub.Summary); s != "" {
		return s
	}

	company := firstNonBlank(sub.CompanyName, sub.Title, "This company")
	industry := firstNonBlank(sub.Industry, "an unspecified industry")
	stage := "an unspecified stage"
	if phase := strings.TrimSpace(sub.Phase); phase != "" {
		stage = "the " + phase + " stage"
	}

	return p.Sprintf("%s operates in %s at %s. Revenue %d, gross margin %.1f%%, LTV/CAC %.2f, churn %.1f%%.",
		company, industry, stage, whole(m.revenue), round2(m.grossMargin*100), round2(m.ltvToCac), round2(m.churn))
}

func whole(v float64) int64 {
	return saturateInt64(math.Round(v))
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
