package api

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
	"github.com/sells-group/pitchscore/internal/store"
)

// ParseFilter reads list query parameters. Unparseable page and pageSize
// fall back to defaults; a non-numeric or non-finite range bound or an
// unknown status is an error.
func ParseFilter(q url.Values) (store.RecordFilter, error) {
	f := store.RecordFilter{
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("pageSize"), 10),
		Sort:     q.Get("sort"),
		Order:    strings.ToLower(q.Get("order")),
		Tags:     listParam(q, "tags"),
	}

	ranges := []struct {
		key  string
		dest **float64
	}{
		{"min_revenue", &f.MinRevenue},
		{"max_revenue", &f.MaxRevenue},
		{"min_ai", &f.MinAIScore},
		{"max_ai", &f.MaxAIScore},
		{"min_margin", &f.MinMargin},
		{"max_margin", &f.MaxMargin},
		{"min_ope_margin", &f.MinOpeMargin},
		{"max_ope_margin", &f.MaxOpeMargin},
	}
	for _, rg := range ranges {
		raw := strings.TrimSpace(q.Get(rg.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return store.RecordFilter{}, eris.Errorf("%s must be a number, got %q", rg.key, raw)
		}
		*rg.dest = &v
	}

	for _, s := range listParam(q, "status") {
		st := model.RecordStatus(strings.ToLower(s))
		if !st.Valid() {
			return store.RecordFilter{}, eris.Errorf("unknown status %q", s)
		}
		f.Statuses = append(f.Statuses, st)
	}
	return f.Normalize(), nil
}

// listParam merges repeated and comma-separated values.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		out = append(out, model.ParseTags(v)...)
	}
	return out
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
