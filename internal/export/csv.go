// Package export renders founder record lists as CSV or XLSX for investors.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

// ContentType is the media type of WriteCSV output.
const ContentType = "text/csv; charset=utf-8"

// row is one exported record. Cells are pre-formatted so nulls stay empty.
type row struct {
	ID              string `csv:"id"`
	CompanyName     string `csv:"company_name"`
	CreatedAt       string `csv:"created_at"`
	Revenue         string `csv:"revenue"`
	GrossProfit     string `csv:"gross_profit"`
	OperatingIncome string `csv:"operating_income"`
	GrossMargin     string `csv:"grossMargin(%)"`
	OperatingMargin string `csv:"operatingMargin(%)"`
	AIScore         string `csv:"ai_score"`
	Tags            string `csv:"tags"`
	Status          string `csv:"status"`
}

// Header lists the CSV columns in order.
func Header() []string {
	h, err := csvutil.Header(row{}, "csv")
	if err != nil {
		panic(err)
	}
	return h
}

func toRow(r model.Record) row {
	if r.GrossMargin == nil && r.OperatingMargin == nil {
		r.ComputeMargins()
	}
	return row{
		ID:              r.ID,
		CompanyName:     r.CompanyName,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		Revenue:         number(r.Revenue, -1),
		GrossProfit:     number(r.GrossProfit, -1),
		OperatingIncome: number(r.OperatingIncome, -1),
		GrossMargin:     number(r.GrossMargin, 1),
		OperatingMargin: number(r.OperatingMargin, 1),
		AIScore:         integer(r.AIScore),
		Tags:            strings.Join(r.Tags, "|"),
		Status:          string(r.Status),
	}
}

// WriteCSV writes the header and one line per record to w.
func WriteCSV(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(records) == 0 {
		if err := enc.EncodeHeader(row{}); err != nil {
			return eris.Wrap(err, "export: encode header")
		}
	}
	for i, r := range records {
		if err := enc.Encode(toRow(r)); err != nil {
			return eris.Wrapf(err, "export: encode record %d", i)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// number formats v with prec decimals, or the shortest form when prec < 0.
func number(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func integer(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
