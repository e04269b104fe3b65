package model

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// RecordStatus is the workflow state of a founder record.
type RecordStatus string

const (
	StatusDraft   RecordStatus = "draft"
	StatusCurrent RecordStatus = "current"
	StatusReview  RecordStatus = "review"
	StatusPublic  RecordStatus = "public"
)

// Valid reports whether s is a known status.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusCurrent, StatusReview, StatusPublic:
		return true
	}
	return false
}

// CanRequestPublish reports whether a record in status s may move to review.
func (s RecordStatus) CanRequestPublish() bool {
	return s == StatusDraft || s == StatusCurrent || s == StatusReview
}

// Tags is a list of labels. It decodes from a JSON array or from a
// comma-separated string.
type Tags []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode tags")
	}
	switch x := raw.(type) {
	case nil:
		*t = nil
	case string:
		*t = ParseTags(x)
	case []any:
		out := make(Tags, 0, len(x))
		for _, v := range x {
			s, ok := v.(string)
			if !ok {
				return eris.Errorf("model: tag must be a string, got %T", v)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*t = out
	default:
		return eris.Errorf("model: tags must be an array or string, got %T", raw)
	}
	return nil
}

// ParseTags splits a comma-separated list, trimming blanks.
func ParseTags(s string) Tags {
	var out Tags
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Record is a persisted founder submission.
type Record struct {
	ID              string       `json:"id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Title           string       `json:"title"`
	CompanyName     string       `json:"company_name"`
	Industry        string       `json:"industry"`
	Phase           string       `json:"phase"`
	Summary         string       `json:"summary"`
	Revenue         *float64     `json:"revenue"`
	COGS            *float64     `json:"cogs"`
	FixedCost       *float64     `json:"fixed_cost"`
	AdCost          *float64     `json:"ad_cost"`
	CV              *float64     `json:"cv"`
	CVR             *float64     `json:"cvr"`
	Price           *float64     `json:"price"`
	CPA             *float64     `json:"cpa"`
	LTV             *float64     `json:"ltv"`
	Churn           *float64     `json:"churn"`
	GrossProfit     *float64     `json:"gross_profit"`
	OperatingIncome *float64     `json:"operating_income"`
	AIScore         *int         `json:"ai_score"`
	Tags            Tags         `json:"tags"`
	Status          RecordStatus `json:"status"`
	SubmittedAt     *time.Time   `json:"submitted_at"`

	// Derived on read.
	GrossMargin     *float64 `json:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
}

// ComputeMargins fills GrossMargin and OperatingMargin (percent) from the
// stored figures. Both stay nil when revenue is missing or zero.
func (r *Record) ComputeMargins() {
	r.GrossMargin = marginPct(r.GrossProfit, r.Revenue)
	r.OperatingMargin = marginPct(r.OperatingIncome, r.Revenue)
}

func marginPct(part, revenue *float64) *float64 {
	if part == nil || revenue == nil || *revenue == 0 {
		return nil
	}
	v := *part / *revenue * 100
	return &v
}

// RecordInput is the flattened payload accepted when saving a record.
type RecordInput struct {
	Title           string         `json:"title"`
	CompanyName     string         `json:"company_name"`
	Industry        string         `json:"industry"`
	Phase           string         `json:"phase"`
	Summary         string         `json:"summary"`
	Revenue         OptionalNumber `json:"revenue"`
	COGS            OptionalNumber `json:"cogs"`
	FixedCost       OptionalNumber `json:"fixed_cost"`
	AdCost          OptionalNumber `json:"ad_cost"`
	CV              OptionalNumber `json:"cv"`
	CVR             OptionalNumber `json:"cvr"`
	Price           OptionalNumber `json:"price"`
	CPA             OptionalNumber `json:"cpa"`
	LTV             OptionalNumber `json:"ltv"`
	Churn           OptionalNumber `json:"churn"`
	GrossProfit     OptionalNumber `json:"gross_profit"`
	OperatingIncome OptionalNumber `json:"operating_income"`
	AIScore         OptionalNumber `json:"ai_score"`
	Tags            Tags           `json:"tags"`
	Status          RecordStatus   `json:"status"`
}

// Normalize applies save-time defaults: status falls back to draft, missing
// gross profit and operating income are derived from revenue components, and
// the ai score is rounded into [0,100]. It fails on an unknown status.
func (in RecordInput) Normalize() (RecordInput, error) {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if !in.Status.Valid() {
		return in, eris.Errorf("model: unknown status %q", in.Status)
	}

	if in.Revenue.Valid {
		if !in.GrossProfit.Valid {
			in.GrossProfit = Some(in.Revenue.Value - in.COGS.Value - in.AdCost.Value)
		}
		if !in.OperatingIncome.Valid {
			in.OperatingIncome = Some(in.GrossProfit.Value - in.FixedCost.Value)
		}
	}

	if in.AIScore.Valid {
		in.AIScore = Some(float64(ClampScore(in.AIScore.Value)))
	}
	return in, nil
}

// AIScorePtr returns the ai score as an int pointer, nil when absent.
func (in RecordInput) AIScorePtr() *int {
	if !in.AIScore.Valid {
		return nil
	}
	v := ClampScore(in.AIScore.Value)
	return &v
}

// ClampScore rounds v and clamps it into [0,100].
func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(v))))
}
