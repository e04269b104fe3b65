package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pitchscore/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// steppedClock returns a clock that advances one minute per call.
func steppedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func seed(t *testing.T, st *SQLiteStore, ins ...model.RecordInput) []*model.Record {
	t.Helper()
	st.now = steppedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	out := make([]*model.Record, 0, len(ins))
	for _, in := range ins {
		r, err := st.CreateRecord(context.Background(), in)
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func ids(p *RecordPage) []string {
	out := make([]string, len(p.Data))
	for i, r := range p.Data {
		out[i] = r.CompanyName
	}
	return out
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Ping(context.Background()))
}

func TestSQLite_CreateAndGet(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateRecord(ctx, model.RecordInput{
		Title:       "Pitch",
		CompanyName: "Acme",
		Industry:    "SaaS",
		Revenue:     model.Some(1000),
		COGS:        model.Some(300),
		AdCost:      model.Some(100),
		FixedCost:   model.Some(200),
		AIScore:     model.Some(61),
		Tags:        model.Tags{"saas", "seed"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := st.GetRecord(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, model.StatusDraft, got.Status)
	assert.Equal(t, model.Tags{"saas", "seed"}, got.Tags)
	require.NotNil(t, got.GrossProfit)
	assert.Equal(t, 600.0, *got.GrossProfit)
	require.NotNil(t, got.OperatingIncome)
	assert.Equal(t, 400.0, *got.OperatingIncome)
	require.NotNil(t, got.GrossMargin)
	assert.InDelta(t, 60.0, *got.GrossMargin, 1e-9)
	require.NotNil(t, got.AIScore)
	assert.Equal(t, 61, *got.AIScore)
	assert.Nil(t, got.CV)
	assert.Nil(t, got.SubmittedAt)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
}

func TestSQLite_GetRecord_NotFound(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	_, err := st.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListRecords_DefaultsNewestFirst(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	seed(t, st,
		model.RecordInput{CompanyName: "first"},
		model.RecordInput{CompanyName: "second"},
		model.RecordInput{CompanyName: "third"},
	)

	page, err := st.ListRecords(context.Background(), RecordFilter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"third", "second", "first"}, ids(page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestSQLite_ListRecords_Pagination(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	var ins []model.RecordInput
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ins = append(ins, model.RecordInput{CompanyName: name})
	}
	seed(t, st, ins...)

	page, err := st.ListRecords(context.Background(), RecordFilter{Page: 2, PageSize: 2, Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids(page))
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	page, err = st.ListRecords(context.Background(), RecordFilter{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.Equal(t, 5, page.Total)
}

func TestSQLite_ListRecords_SortAIScoreNullsLast(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	seed(t, st,
		model.RecordInput{CompanyName: "mid", AIScore: model.Some(60)},
		model.RecordInput{CompanyName: "none"},
		model.RecordInput{CompanyName: "top", AIScore: model.Some(90)},
		model.RecordInput{CompanyName: "low", AIScore: model.Some(20)},
	)
	ctx := context.Background()

	desc, err := st.ListRecords(ctx, RecordFilter{Sort: SortAIScore, Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "mid", "low", "none"}, ids(desc))

	asc, err := st.ListRecords(ctx, RecordFilter{Sort: SortAIScore, Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "mid", "top", "none"}, ids(asc))
}

func TestSQLite_ListRecords_Filters(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	seed(t, st,
		model.RecordInput{
			CompanyName: "fat-margin", Revenue: model.Some(1000), GrossProfit: model.Some(600),
			OperatingIncome: model.Some(300), AIScore: model.Some(80), Tags: model.Tags{"saas", "b2b"},
		},
		model.RecordInput{
			CompanyName: "thin-margin", Revenue: model.Some(5000), GrossProfit: model.Some(500),
			OperatingIncome: model.Some(-100), AIScore: model.Some(40), Tags: model.Tags{"saas"},
			Status: model.StatusPublic,
		},
		model.RecordInput{CompanyName: "no-revenue", Tags: model.Tags{"b2b"}, Status: model.StatusReview},
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter RecordFilter
		want   []string
	}{
		{"min revenue", RecordFilter{MinRevenue: ptr(2000)}, []string{"thin-margin"}},
		{"max revenue", RecordFilter{MaxRevenue: ptr(2000)}, []string{"fat-margin"}},
		{"ai range", RecordFilter{MinAIScore: ptr(50), MaxAIScore: ptr(90)}, []string{"fat-margin"}},
		{"min margin", RecordFilter{MinMargin: ptr(50)}, []string{"fat-margin"}},
		{"max margin", RecordFilter{MaxMargin: ptr(15)}, []string{"thin-margin"}},
		{"negative operating margin", RecordFilter{MaxOpeMargin: ptr(0)}, []string{"thin-margin"}},
		{"min operating margin", RecordFilter{MinOpeMargin: ptr(20)}, []string{"fat-margin"}},
		{"single tag", RecordFilter{Tags: []string{"b2b"}}, []string{"no-revenue", "fat-margin"}},
		{"all tags", RecordFilter{Tags: []string{"saas", "b2b"}}, []string{"fat-margin"}},
		{"unknown tag", RecordFilter{Tags: []string{"hardware"}}, []string{}},
		{"status", RecordFilter{Statuses: []model.RecordStatus{model.StatusPublic, model.StatusReview}}, []string{"no-revenue", "thin-margin"}},
		{"combined", RecordFilter{Tags: []string{"saas"}, Statuses: []model.RecordStatus{model.StatusDraft}}, []string{"fat-margin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := st.ListRecords(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestSQLite_UpdateRecord_OnlySuppliedColumns(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	recs := seed(t, st, model.RecordInput{
		Title: "Old", CompanyName: "Acme", Revenue: model.Some(1000), COGS: model.Some(100), Tags: model.Tags{"a"},
	})
	ctx := context.Background()

	patch, err := PatchFromJSON([]byte(`{"title":"New","cogs":null,"tags":["b","c"],"ai_score":"77"}`))
	require.NoError(t, err)

	got, err := st.UpdateRecord(ctx, recs[0].ID, patch)
	require.NoError(t, err)

	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "Acme", got.CompanyName)
	require.NotNil(t, got.Revenue)
	assert.Equal(t, 1000.0, *got.Revenue)
	assert.Nil(t, got.COGS)
	assert.Equal(t, model.Tags{"b", "c"}, got.Tags)
	require.NotNil(t, got.AIScore)
	assert.Equal(t, 77, *got.AIScore)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestSQLite_UpdateRecord_Errors(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	recs := seed(t, st, model.RecordInput{CompanyName: "Acme"})
	ctx := context.Background()

	_, err := st.UpdateRecord(ctx, recs[0].ID, RecordPatch{})
	assert.ErrorIs(t, err, ErrNoFields)

	var p RecordPatch
	require.NoError(t, p.SetText("title", "x"))
	_, err = st.UpdateRecord(ctx, "missing", p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_RequestPublish(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	recs := seed(t, st,
		model.RecordInput{CompanyName: "draft"},
		model.RecordInput{CompanyName: "current", Status: model.StatusCurrent},
		model.RecordInput{CompanyName: "public", Status: model.StatusPublic},
	)
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	for _, r := range recs[:2] {
		got, err := st.RequestPublish(ctx, r.ID, at)
		require.NoError(t, err)
		assert.Equal(t, model.StatusReview, got.Status)
		require.NotNil(t, got.SubmittedAt)
		assert.True(t, got.SubmittedAt.Equal(at))
	}

	// Re-requesting review is allowed and restamps.
	later := at.Add(time.Hour)
	got, err := st.RequestPublish(ctx, recs[0].ID, later)
	require.NoError(t, err)
	assert.True(t, got.SubmittedAt.Equal(later))

	_, err = st.RequestPublish(ctx, recs[2].ID, at)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = st.RequestPublish(ctx, "missing", at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ImportRecords(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.ImportRecords(ctx, []model.RecordInput{
		{CompanyName: "one", Revenue: model.Some(10)},
		{CompanyName: "two", Tags: model.Tags{"x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	n, err = st.ImportRecords(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ImportRecords_AllOrNothing(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ImportRecords(ctx, []model.RecordInput{
		{CompanyName: "ok"},
		{CompanyName: "bad", Status: "archived"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import record 1")

	page, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
