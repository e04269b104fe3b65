package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pitchscore/internal/model"
)

func TestRecordFilter_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   RecordFilter
		want RecordFilter
	}{
		{
			name: "defaults",
			in:   RecordFilter{},
			want: RecordFilter{Page: 1, PageSize: 10, Sort: SortCreatedAt, Order: "desc"},
		},
		{
			name: "clamps",
			in:   RecordFilter{Page: 20000, PageSize: 500, Sort: "ai_score", Order: "asc"},
			want: RecordFilter{Page: 10000, PageSize: 100, Sort: SortAIScore, Order: "asc"},
		},
		{
			name: "unknown sort and order",
			in:   RecordFilter{Page: -3, PageSize: -1, Sort: "revenue; DROP TABLE", Order: "sideways"},
			want: RecordFilter{Page: 1, PageSize: 10, Sort: SortCreatedAt, Order: "desc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestRecordFilter_Offset(t *testing.T) {
	t.Parallel()

	f := RecordFilter{Page: 3, PageSize: 25}.Normalize()
	assert.Equal(t, 50, f.Offset())
}

func TestNewPage_TotalPages(t *testing.T) {
	t.Parallel()

	f := RecordFilter{PageSize: 10}.Normalize()

	p := newPage(f, nil, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.NotNil(t, p.Data)

	assert.Equal(t, 1, newPage(f, nil, 10).TotalPages)
	assert.Equal(t, 2, newPage(f, nil, 11).TotalPages)
}

func TestNewRecord_AppliesSaveSemantics(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r, err := newRecord(model.RecordInput{
		CompanyName: "Acme",
		Revenue:     model.Some(1000),
		COGS:        model.Some(400),
		AIScore:     model.Some(120),
	}, "rec-1", now)
	require.NoError(t, err)

	assert.Equal(t, "rec-1", r.ID)
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, now, r.UpdatedAt)
	assert.Equal(t, model.StatusDraft, r.Status)
	require.NotNil(t, r.GrossProfit)
	assert.Equal(t, 600.0, *r.GrossProfit)
	require.NotNil(t, r.GrossMargin)
	assert.InDelta(t, 60.0, *r.GrossMargin, 1e-9)
	require.NotNil(t, r.AIScore)
	assert.Equal(t, 100, *r.AIScore)
	assert.Equal(t, model.Tags{}, r.Tags)
	require.NotNil(t, r.COGS)
}

func TestNewRecord_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	_, err := newRecord(model.RecordInput{Status: "archived"}, "x", time.Now())
	assert.Error(t, err)
}

func TestPatchFromJSON(t *testing.T) {
	t.Parallel()

	p, err := PatchFromJSON([]byte(`{
		"title": "New title",
		"summary": null,
		"revenue": "2500",
		"cogs": "",
		"ai_score": 101.2,
		"tags": "a, b",
		"status": "public",
		"id": "hijack"
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"ai_score", "cogs", "revenue", "summary", "tags", "title"}, p.Columns())

	v, ok := p.Value("title")
	require.True(t, ok)
	assert.Equal(t, "New title", v)

	v, _ = p.Value("summary")
	assert.Equal(t, "", v)

	v, _ = p.Value("revenue")
	require.IsType(t, (*float64)(nil), v)
	assert.Equal(t, 2500.0, *v.(*float64))

	v, _ = p.Value("cogs")
	assert.Nil(t, v.(*float64))

	v, _ = p.Value("ai_score")
	assert.Equal(t, 100, *v.(*int))

	v, _ = p.Value("tags")
	assert.Equal(t, model.Tags{"a", "b"}, v)

	_, ok = p.Value("status")
	assert.False(t, ok)
}

func TestPatchFromJSON_Errors(t *testing.T) {
	t.Parallel()

	_, err := PatchFromJSON([]byte(`not json`))
	assert.Error(t, err)

	_, err = PatchFromJSON([]byte(`{"title": 5}`))
	assert.Error(t, err)

	_, err = PatchFromJSON([]byte(`{"tags": [1]}`))
	assert.Error(t, err)

	p, err := PatchFromJSON([]byte(`{"unknown": 1}`))
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestRecordPatch_Setters(t *testing.T) {
	t.Parallel()

	var p RecordPatch
	assert.True(t, p.Empty())

	require.NoError(t, p.SetText("industry", "fintech"))
	assert.Error(t, p.SetText("revenue", "x"))
	assert.Error(t, p.SetText("status", "public"))

	v := 12.5
	require.NoError(t, p.SetNumber("churn", &v))
	assert.Error(t, p.SetNumber("title", &v))

	p.SetTags(nil)
	tags, _ := p.Value("tags")
	assert.Equal(t, model.Tags{}, tags)

	assert.False(t, p.Empty())
	assert.True(t, Patchable("ltv"))
	assert.False(t, Patchable("created_at"))
}
