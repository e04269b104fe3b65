package store

import (
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

type columnKind int

const (
	kindText columnKind = iota
	kindNumber
	kindScore
	kindTags
)

// patchable lists the columns a partial update may touch.
var patchable = map[string]columnKind{
	"title":            kindText,
	"company_name":     kindText,
	"industry":         kindText,
	"phase":            kindText,
	"summary":          kindText,
	"revenue":          kindNumber,
	"ai_score":         kindScore,
	"gross_profit":     kindNumber,
	"operating_income": kindNumber,
	"cogs":             kindNumber,
	"ad_cost":          kindNumber,
	"fixed_cost":       kindNumber,
	"cv":               kindNumber,
	"price":            kindNumber,
	"cvr":              kindNumber,
	"cpa":              kindNumber,
	"ltv":              kindNumber,
	"churn":            kindNumber,
	"tags":             kindTags,
}

// RecordPatch is a partial update carrying only the supplied columns.
// Values are string, *float64, *int, or model.Tags by column.
type RecordPatch struct {
	set map[string]any
}

// Patchable reports whether col may be updated.
func Patchable(col string) bool {
	_, ok := patchable[col]
	return ok
}

// SetText sets a text column.
func (p *RecordPatch) SetText(col, v string) error {
	if k, ok := patchable[col]; !ok || k != kindText {
		return eris.Errorf("store: %s is not a patchable text column", col)
	}
	p.put(col, v)
	return nil
}

// SetNumber sets a numeric column; nil stores NULL.
func (p *RecordPatch) SetNumber(col string, v *float64) error {
	if k, ok := patchable[col]; !ok || k != kindNumber {
		return eris.Errorf("store: %s is not a patchable numeric column", col)
	}
	p.put(col, v)
	return nil
}

// SetAIScore sets ai_score, rounded and clamped into [0,100]; nil stores NULL.
func (p *RecordPatch) SetAIScore(v *float64) {
	var score *int
	if v != nil {
		s := model.ClampScore(*v)
		score = &s
	}
	p.put("ai_score", score)
}

// SetTags replaces the tag list.
func (p *RecordPatch) SetTags(tags model.Tags) {
	if tags == nil {
		tags = model.Tags{}
	}
	p.put("tags", tags)
}

func (p *RecordPatch) put(col string, v any) {
	if p.set == nil {
		p.set = make(map[string]any)
	}
	p.set[col] = v
}

// Empty reports whether the patch carries no columns.
func (p RecordPatch) Empty() bool { return len(p.set) == 0 }

// Columns returns the supplied column names in sorted order.
func (p RecordPatch) Columns() []string {
	cols := make([]string, 0, len(p.set))
	for c := range p.set {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Value returns the value supplied for col.
func (p RecordPatch) Value(col string) (any, bool) {
	v, ok := p.set[col]
	return v, ok
}

// PatchFromJSON builds a patch from a JSON object. Keys outside the
// allow-list are ignored. Numbers decode leniently: null, "" and
// non-numeric values store NULL.
func PatchFromJSON(data []byte) (RecordPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return RecordPatch{}, eris.Wrap(err, "store: decode patch")
	}

	var p RecordPatch
	for col, msg := range raw {
		kind, ok := patchable[col]
		if !ok {
			continue
		}
		switch kind {
		case kindText:
			var s *string
			if err := json.Unmarshal(msg, &s); err != nil {
				return RecordPatch{}, eris.Wrapf(err, "store: decode patch %s", col)
			}
			v := ""
			if s != nil {
				v = *s
			}
			p.put(col, v)
		case kindNumber:
			var n model.OptionalNumber
			if err := json.Unmarshal(msg, &n); err != nil {
				return RecordPatch{}, eris.Wrapf(err, "store: decode patch %s", col)
			}
			p.put(col, n.Ptr())
		case kindScore:
			var n model.OptionalNumber
			if err := json.Unmarshal(msg, &n); err != nil {
				return RecordPatch{}, eris.Wrapf(err, "store: decode patch %s", col)
			}
			p.SetAIScore(n.Ptr())
		case kindTags:
			var tags model.Tags
			if err := json.Unmarshal(msg, &tags); err != nil {
				return RecordPatch{}, eris.Wrapf(err, "store: decode patch %s", col)
			}
			p.SetTags(tags)
		}
	}
	return p, nil
}
