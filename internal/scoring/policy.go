// Package scoring implements the rule-based pitch scoring engine: derived
// KPIs, weighted subscores, rank mapping, advice and narrative lines.
package scoring

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pitchscore/internal/config"
)

// WeightSum returns the sum of the four subscore weights.
func WeightSum(c config.ScoringConfig) float64 {
	return c.FinanceFitWeight + c.ViabilityWeight + c.GoToMarketWeight + c.RiskWeight
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	// All weights must be non-negative.
	weights := []struct {
		name string
		w    float64
	}{
		{"finance_fit_weight", c.FinanceFitWeight},
		{"viability_weight", c.ViabilityWeight},
		{"go_to_market_weight", c.GoToMarketWeight},
		{"risk_weight", c.RiskWeight},
	}
	for _, w := range weights {
		if w.w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", w.name))
		}
	}

	if WeightSum(c) <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	// Curves must not invert: better inputs never lower a subscore.
	slopes := []struct {
		name string
		s    float64
	}{
		{"finance_margin_slope", c.FinanceMarginSlope},
		{"viability_ltv_cac_slope", c.ViabilityLTVCACSlope},
		{"go_to_market_cvr_slope", c.GoToMarketCVRSlope},
		{"risk_churn_slope", c.RiskChurnSlope},
	}
	for _, s := range slopes {
		if s.s < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", s.name))
		}
	}

	// Rank table.
	if len(c.RankThresholds) == 0 {
		errs = append(errs, "rank_thresholds must not be empty")
	}
	for i, rt := range c.RankThresholds {
		if strings.TrimSpace(rt.Rank) == "" {
			errs = append(errs, fmt.Sprintf("rank_thresholds[%d].rank must not be empty", i))
		}
		if rt.MinScore < 0 || rt.MinScore > 100 {
			errs = append(errs, fmt.Sprintf("rank_thresholds[%d].min_score must be between 0 and 100", i))
		}
		if i > 0 && rt.MinScore >= c.RankThresholds[i-1].MinScore {
			errs = append(errs, "rank_thresholds must be strictly descending by min_score")
		}
	}
	if strings.TrimSpace(c.RankFloor) == "" {
		errs = append(errs, "rank_floor must not be empty")
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadPolicyFile overlays the YAML policy at path onto base. Keys absent
// from the file keep their base values; a rank_thresholds list replaces the
// base table wholesale.
func LoadPolicyFile(path string, base config.ScoringConfig) (config.ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrapf(err, "scoring: read policy %s", path)
	}

	out := base
	out.RankThresholds = append([]config.RankThreshold(nil), base.RankThresholds...)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return base, eris.Wrapf(err, "scoring: parse policy %s", path)
	}
	out.PolicyFile = path

	if err := ValidateConfig(out); err != nil {
		return base, err
	}
	return out, nil
}
