package export

import (
	"context"

	"github.com/sells-group/pitchscore/internal/model"
	"github.com/sells-group/pitchscore/internal/store"
)

// collectPageSize is the page size used while walking a full export.
const collectPageSize = 100

// Lister is the part of store.Store that Collect reads from.
type Lister interface {
	ListRecords(ctx context.Context, filter store.RecordFilter) (*store.RecordPage, error)
}

// Collect returns every record matching f across all pages, up to
// store.MaxPage pages. The paging fields of f are ignored.
func Collect(ctx context.Context, st Lister, f store.RecordFilter) ([]model.Record, error) {
	f.PageSize = collectPageSize
	out := []model.Record{}
	for f.Page = 1; f.Page <= store.MaxPage; f.Page++ {
		page, err := st.ListRecords(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if len(page.Data) == 0 || f.Page >= page.TotalPages {
			break
		}
	}
	return out, nil
}
