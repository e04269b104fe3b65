package export

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/pitchscore/internal/model"
)

// XLSXContentType is the media type of WriteXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName names the single worksheet of an XLSX export.
const SheetName = "founder_records"

// WriteXLSX writes a one-sheet workbook with the CSV columns. Amounts and
// scores are numeric cells; nulls are left blank.
func WriteXLSX(w io.Writer, records []model.Record) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header() {
		header.AddCell().SetString(h)
	}

	for _, r := range records {
		if r.GrossMargin == nil && r.OperatingMargin == nil {
			r.ComputeMargins()
		}
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.CompanyName)
		row.AddCell().SetString(r.CreatedAt.UTC().Format(time.RFC3339))
		floatCell(row, r.Revenue, "")
		floatCell(row, r.GrossProfit, "")
		floatCell(row, r.OperatingIncome, "")
		floatCell(row, r.GrossMargin, "0.0")
		floatCell(row, r.OperatingMargin, "0.0")
		if r.AIScore != nil {
			row.AddCell().SetInt(*r.AIScore)
		} else {
			row.AddCell()
		}
		row.AddCell().SetString(toRow(r).Tags)
		row.AddCell().SetString(string(r.Status))
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func floatCell(row *xlsx.Row, v *float64, format string) {
	cell := row.AddCell()
	switch {
	case v == nil:
	case format == "":
		cell.SetFloat(*v)
	default:
		cell.SetFloatWithFormat(*v, format)
	}
}
