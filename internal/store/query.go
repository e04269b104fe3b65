package store

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

const recordsTable = "founder_records"

// recordColumns is the canonical column order for inserts, COPY and scans.
var recordColumns = []string{
	"id", "created_at", "updated_at",
	"title", "company_name", "industry", "phase", "summary",
	"revenue", "cogs", "fixed_cost", "ad_cost", "cv", "cvr", "price", "cpa", "ltv", "churn",
	"gross_profit", "operating_income", "ai_score",
	"tags", "status", "submitted_at",
}

const (
	grossMarginExpr     = "gross_profit * 100.0 / NULLIF(revenue, 0)"
	operatingMarginExpr = "operating_income * 100.0 / NULLIF(revenue, 0)"
)

// dialect captures what differs between the Postgres and SQLite schemas.
type dialect struct {
	placeholder sq.PlaceholderFormat
	// tagsValue encodes a tag list as the backend's column value.
	tagsValue func(model.Tags) (any, error)
	// tagsContainAll matches records carrying every tag.
	tagsContainAll func(tags []string) sq.Sqlizer
}

var postgresDialect = dialect{
	placeholder: sq.Dollar,
	tagsValue: func(t model.Tags) (any, error) {
		if t == nil {
			t = model.Tags{}
		}
		return []string(t), nil
	},
	tagsContainAll: func(tags []string) sq.Sqlizer {
		return sq.Expr("tags @> ?", tags)
	},
}

var sqliteDialect = dialect{
	placeholder: sq.Question,
	tagsValue: func(t model.Tags) (any, error) {
		if t == nil {
			t = model.Tags{}
		}
		b, err := json.Marshal(t)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal tags")
		}
		return string(b), nil
	},
	tagsContainAll: func(tags []string) sq.Sqlizer {
		all := sq.And{}
		for _, tag := range tags {
			all = append(all, sq.Expr(
				"EXISTS (SELECT 1 FROM json_each("+recordsTable+".tags) WHERE json_each.value = ?)", tag,
			))
		}
		return all
	},
}

func (d dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.placeholder)
}

// conditions translates the filter into WHERE clauses.
func (d dialect) conditions(f RecordFilter) []sq.Sqlizer {
	var conds []sq.Sqlizer

	ranges := []struct {
		expr     string
		min, max *float64
	}{
		{"revenue", f.MinRevenue, f.MaxRevenue},
		{"ai_score", f.MinAIScore, f.MaxAIScore},
		{grossMarginExpr, f.MinMargin, f.MaxMargin},
		{operatingMarginExpr, f.MinOpeMargin, f.MaxOpeMargin},
	}
	for _, r := range ranges {
		if r.min != nil {
			conds = append(conds, sq.Expr(r.expr+" >= ?", *r.min))
		}
		if r.max != nil {
			conds = append(conds, sq.Expr(r.expr+" <= ?", *r.max))
		}
	}

	if len(f.Tags) > 0 {
		conds = append(conds, d.tagsContainAll(f.Tags))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, sq.Eq{"status": statuses})
	}
	return conds
}

func (d dialect) listQuery(f RecordFilter) (string, []any, error) {
	f = f.Normalize()
	b := d.builder().Select(recordColumns...).From(recordsTable)
	for _, c := range d.conditions(f) {
		b = b.Where(c)
	}
	b = b.OrderBy(fmt.Sprintf("%s %s NULLS LAST", f.Sort, f.Order), "id ASC").
		Limit(uint64(f.PageSize)).
		Offset(uint64(f.Offset()))
	return b.ToSql()
}

func (d dialect) countQuery(f RecordFilter) (string, []any, error) {
	b := d.builder().Select("COUNT(*)").From(recordsTable)
	for _, c := range d.conditions(f.Normalize()) {
		b = b.Where(c)
	}
	return b.ToSql()
}

func (d dialect) getQuery(id string) (string, []any, error) {
	return d.builder().Select(recordColumns...).From(recordsTable).Where(sq.Eq{"id": id}).ToSql()
}

func (d dialect) statusQuery(id string) (string, []any, error) {
	return d.builder().Select("status").From(recordsTable).Where(sq.Eq{"id": id}).ToSql()
}

// values returns r's column values in recordColumns order.
func (d dialect) values(r *model.Record) ([]any, error) {
	tags, err := d.tagsValue(r.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		r.ID, r.CreatedAt, r.UpdatedAt,
		r.Title, r.CompanyName, r.Industry, r.Phase, r.Summary,
		nullable(r.Revenue), nullable(r.COGS), nullable(r.FixedCost), nullable(r.AdCost),
		nullable(r.CV), nullable(r.CVR), nullable(r.Price), nullable(r.CPA), nullable(r.LTV), nullable(r.Churn),
		nullable(r.GrossProfit), nullable(r.OperatingIncome), nullable(r.AIScore),
		tags, string(r.Status), nullable(r.SubmittedAt),
	}, nil
}

// nullable dereferences p, mapping nil to SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func (d dialect) insertQuery(r *model.Record) (string, []any, error) {
	vals, err := d.values(r)
	if err != nil {
		return "", nil, err
	}
	return d.builder().Insert(recordsTable).Columns(recordColumns...).Values(vals...).ToSql()
}

func (d dialect) updateQuery(id string, p RecordPatch, now time.Time) (string, []any, error) {
	if p.Empty() {
		return "", nil, ErrNoFields
	}
	b := d.builder().Update(recordsTable)
	for _, col := range p.Columns() {
		v, _ := p.Value(col)
		switch x := v.(type) {
		case model.Tags:
			enc, err := d.tagsValue(x)
			if err != nil {
				return "", nil, err
			}
			v = enc
		case *float64:
			v = nullable(x)
		case *int:
			v = nullable(x)
		}
		b = b.Set(col, v)
	}
	return b.Set("updated_at", now).Where(sq.Eq{"id": id}).ToSql()
}

func (d dialect) publishQuery(id string, at time.Time) (string, []any, error) {
	return d.builder().Update(recordsTable).
		Set("status", string(model.StatusReview)).
		Set("submitted_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": publishableStatuses()}).
		ToSql()
}

func publishableStatuses() []string {
	var out []string
	for _, s := range []model.RecordStatus{model.StatusDraft, model.StatusCurrent, model.StatusReview, model.StatusPublic} {
		if s.CanRequestPublish() {
			out = append(out, string(s))
		}
	}
	return out
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRecord scans a row in recordColumns order. tags receives the raw
// backend value; decode converts it once the scan succeeds.
func scanRecord(row scannable, tags any, decode func(*model.Record) error) (*model.Record, error) {
	var r model.Record
	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.UpdatedAt,
		&r.Title, &r.CompanyName, &r.Industry, &r.Phase, &r.Summary,
		&r.Revenue, &r.COGS, &r.FixedCost, &r.AdCost, &r.CV, &r.CVR, &r.Price, &r.CPA, &r.LTV, &r.Churn,
		&r.GrossProfit, &r.OperatingIncome, &r.AIScore,
		tags, &r.Status, &r.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decode(&r); err != nil {
		return nil, err
	}
	if r.Tags == nil {
		r.Tags = model.Tags{}
	}
	r.ComputeMargins()
	return &r, nil
}
