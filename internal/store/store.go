// Package store persists founder records and serves the filtered, sorted,
// paginated lists investors browse.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

// Sentinel errors returned unwrapped so callers can match with errors.Is.
var (
	ErrNotFound          = eris.New("store: record not found")
	ErrNoFields          = eris.New("store: no updatable fields supplied")
	ErrInvalidTransition = eris.New("store: invalid status transition")
)

// Store defines the persistence interface for founder records.
type Store interface {
	CreateRecord(ctx context.Context, in model.RecordInput) (*model.Record, error)
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) (*RecordPage, error)
	UpdateRecord(ctx context.Context, id string, patch RecordPatch) (*model.Record, error)
	RequestPublish(ctx context.Context, id string, at time.Time) (*model.Record, error)
	ImportRecords(ctx context.Context, ins []model.RecordInput) (int64, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Sort keys accepted by ListRecords.
const (
	SortCreatedAt = "created_at"
	SortAIScore   = "ai_score"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// MaxPage is the highest page Normalize allows; larger pages are clamped.
const MaxPage = 10000

// RecordFilter specifies criteria for listing records. Margin bounds are
// in percent.
type RecordFilter struct {
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Sort     string `json:"sort,omitempty"`
	Order    string `json:"order,omitempty"`

	MinRevenue   *float64 `json:"min_revenue,omitempty"`
	MaxRevenue   *float64 `json:"max_revenue,omitempty"`
	MinAIScore   *float64 `json:"min_ai,omitempty"`
	MaxAIScore   *float64 `json:"max_ai,omitempty"`
	MinMargin    *float64 `json:"min_margin,omitempty"`
	MaxMargin    *float64 `json:"max_margin,omitempty"`
	MinOpeMargin *float64 `json:"min_ope_margin,omitempty"`
	MaxOpeMargin *float64 `json:"max_ope_margin,omitempty"`

	Tags     []string             `json:"tags,omitempty"`
	Statuses []model.RecordStatus `json:"status,omitempty"`
}

// Normalize applies paging defaults and clamps, and resolves sort keys.
func (f RecordFilter) Normalize() RecordFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Sort != SortAIScore {
		f.Sort = SortCreatedAt
	}
	if f.Order != "asc" {
		f.Order = "desc"
	}
	return f
}

// Offset returns the row offset of the filter's page.
func (f RecordFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// RecordPage is one page of a filtered record list.
type RecordPage struct {
	Data       []model.Record `json:"data"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}

func newPage(f RecordFilter, data []model.Record, total int) *RecordPage {
	if data == nil {
		data = []model.Record{}
	}
	pages := 0
	if total > 0 {
		pages = (total + f.PageSize - 1) / f.PageSize
	}
	return &RecordPage{
		Data:       data,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: pages,
	}
}

// newRecord applies save semantics to in and stamps identity and time.
func newRecord(in model.RecordInput, id string, now time.Time) (*model.Record, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	tags := in.Tags
	if tags == nil {
		tags = model.Tags{}
	}
	r := &model.Record{
		ID:              id,
		CreatedAt:       now,
		UpdatedAt:       now,
		Title:           in.Title,
		CompanyName:     in.CompanyName,
		Industry:        in.Industry,
		Phase:           in.Phase,
		Summary:         in.Summary,
		Revenue:         in.Revenue.Ptr(),
		COGS:            in.COGS.Ptr(),
		FixedCost:       in.FixedCost.Ptr(),
		AdCost:          in.AdCost.Ptr(),
		CV:              in.CV.Ptr(),
		CVR:             in.CVR.Ptr(),
		Price:           in.Price.Ptr(),
		CPA:             in.CPA.Ptr(),
		LTV:             in.LTV.Ptr(),
		Churn:           in.Churn.Ptr(),
		GrossProfit:     in.GrossProfit.Ptr(),
		OperatingIncome: in.OperatingIncome.Ptr(),
		AIScore:         in.AIScorePtr(),
		Tags:            tags,
		Status:          in.Status,
	}
	r.ComputeMargins()
	return r, nil
}
