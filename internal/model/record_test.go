package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Tags
	}{
		{"array", `["saas", " b2b "]`, Tags{"saas", "b2b"}},
		{"comma string", `"saas, b2b,,seed"`, Tags{"saas", "b2b", "seed"}},
		{"null", `null`, nil},
		{"empty array", `[]`, Tags{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var tags Tags
			require.NoError(t, json.Unmarshal([]byte(tt.in), &tags))
			assert.Equal(t, tt.want, tags)
		})
	}
}

func TestTags_UnmarshalJSON_Invalid(t *testing.T) {
	t.Parallel()

	var tags Tags
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &tags))
	assert.Error(t, json.Unmarshal([]byte(`42`), &tags))
}

func TestRecordInput_Normalize_DerivesProfit(t *testing.T) {
	t.Parallel()

	var in RecordInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"company_name": "Acme",
		"revenue": 1000,
		"cogs": "300",
		"ad_cost": 200,
		"fixed_cost": 100,
		"ai_score": 72.6
	}`), &in))

	out, err := in.Normalize()
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, out.Status)
	require.True(t, out.GrossProfit.Valid)
	assert.Equal(t, 500.0, out.GrossProfit.Value)
	require.True(t, out.OperatingIncome.Valid)
	assert.Equal(t, 400.0, out.OperatingIncome.Value)
	require.NotNil(t, out.AIScorePtr())
	assert.Equal(t, 73, *out.AIScorePtr())
}

func TestRecordInput_Normalize_KeepsExplicitProfit(t *testing.T) {
	t.Parallel()

	in := RecordInput{Revenue: Some(1000), GrossProfit: Some(900)}
	out, err := in.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 900.0, out.GrossProfit.Value)
	assert.Equal(t, 900.0, out.OperatingIncome.Value)
}

func TestRecordInput_Normalize_NoRevenue(t *testing.T) {
	t.Parallel()

	out, err := RecordInput{COGS: Some(5)}.Normalize()
	require.NoError(t, err)
	assert.False(t, out.GrossProfit.Valid)
	assert.False(t, out.OperatingIncome.Valid)
	assert.Nil(t, out.AIScorePtr())
}

func TestRecordInput_Normalize_BadStatus(t *testing.T) {
	t.Parallel()

	_, err := RecordInput{Status: "archived"}.Normalize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 100, ClampScore(140))
	assert.Equal(t, 85, ClampScore(84.5))
}

func TestRecord_ComputeMargins(t *testing.T) {
	t.Parallel()

	rev, gp, op := 200.0, 50.0, -20.0
	r := Record{Revenue: &rev, GrossProfit: &gp, OperatingIncome: &op}
	r.ComputeMargins()

	require.NotNil(t, r.GrossMargin)
	assert.InDelta(t, 25.0, *r.GrossMargin, 1e-9)
	require.NotNil(t, r.OperatingMargin)
	assert.InDelta(t, -10.0, *r.OperatingMargin, 1e-9)

	zero := 0.0
	r2 := Record{Revenue: &zero, GrossProfit: &gp}
	r2.ComputeMargins()
	assert.Nil(t, r2.GrossMargin)
	assert.Nil(t, r2.OperatingMargin)
}

func TestRecordStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusDraft.Valid())
	assert.False(t, RecordStatus("x").Valid())
	assert.True(t, StatusCurrent.CanRequestPublish())
	assert.True(t, StatusReview.CanRequestPublish())
	assert.False(t, StatusPublic.CanRequestPublish())
}
