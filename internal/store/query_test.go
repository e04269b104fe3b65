package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pitchscore/internal/model"
)

func ptr(v float64) *float64 { return &v }

func TestListQuery_Postgres(t *testing.T) {
	t.Parallel()

	f := RecordFilter{
		Page:       2,
		PageSize:   5,
		Sort:       SortAIScore,
		Order:      "asc",
		MinRevenue: ptr(1000),
		MaxMargin:  ptr(40),
		Tags:       []string{"saas", "b2b"},
		Statuses:   []model.RecordStatus{model.StatusDraft, model.StatusReview},
	}

	query, args, err := postgresDialect.listQuery(f)
	require.NoError(t, err)

	assert.Contains(t, query, "FROM founder_records WHERE revenue >= $1")
	assert.Contains(t, query, "gross_profit * 100.0 / NULLIF(revenue, 0) <= $2")
	assert.Contains(t, query, "tags @> $3")
	assert.Contains(t, query, "status IN ($4,$5)")
	assert.Contains(t, query, "ORDER BY ai_score asc NULLS LAST, id ASC")
	assert.Contains(t, query, "LIMIT 5")
	assert.Contains(t, query, "OFFSET 5")
	assert.Equal(t, []any{1000.0, 40.0, []string{"saas", "b2b"}, "draft", "review"}, args)
}

func TestListQuery_SQLiteTags(t *testing.T) {
	t.Parallel()

	query, args, err := sqliteDialect.listQuery(RecordFilter{Tags: []string{"saas", "b2b"}})
	require.NoError(t, err)

	assert.Contains(t, query, "EXISTS (SELECT 1 FROM json_each(founder_records.tags) WHERE json_each.value = ?)")
	assert.Contains(t, query, "ORDER BY created_at desc NULLS LAST")
	assert.NotContains(t, query, "$1")
	assert.Equal(t, []any{"saas", "b2b"}, args)
}

func TestCountQuery_IgnoresPaging(t *testing.T) {
	t.Parallel()

	query, args, err := postgresDialect.countQuery(RecordFilter{Page: 4, MinAIScore: ptr(70), MaxOpeMargin: ptr(10)})
	require.NoError(t, err)

	assert.Contains(t, query, "SELECT COUNT(*) FROM founder_records WHERE ai_score >= $1")
	assert.Contains(t, query, "operating_income * 100.0 / NULLIF(revenue, 0) <= $2")
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []any{70.0, 10.0}, args)
}

func TestUpdateQuery(t *testing.T) {
	t.Parallel()

	var p RecordPatch
	require.NoError(t, p.SetText("title", "T"))
	require.NoError(t, p.SetNumber("revenue", nil))
	p.SetTags(model.Tags{"x"})
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	query, args, err := sqliteDialect.updateQuery("rec-1", p, now)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE founder_records SET revenue = ?, tags = ?, title = ?, updated_at = ? WHERE id = ?", query)
	assert.Equal(t, []any{nil, `["x"]`, "T", now, "rec-1"}, args)

	_, _, err = sqliteDialect.updateQuery("rec-1", RecordPatch{}, now)
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestPublishQuery(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	query, args, err := postgresDialect.publishQuery("rec-1", at)
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE founder_records SET status = $1, submitted_at = $2, updated_at = $3 WHERE id = $4 AND status IN ($5,$6,$7)",
		query)
	assert.Equal(t, []any{"review", at, at, "rec-1", "draft", "current", "review"}, args)
}

func TestInsertQuery_ValuesInColumnOrder(t *testing.T) {
	t.Parallel()

	r := &model.Record{ID: "rec-1", Status: model.StatusDraft, Tags: model.Tags{"a"}}
	vals, err := postgresDialect.values(r)
	require.NoError(t, err)
	require.Len(t, vals, len(recordColumns))

	assert.Equal(t, "rec-1", vals[0])
	assert.Nil(t, vals[8]) // revenue
	assert.Equal(t, []string{"a"}, vals[21])
	assert.Equal(t, "draft", vals[22])
	assert.Nil(t, vals[23])
}
