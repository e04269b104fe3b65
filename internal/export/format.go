package export

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format name; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", eris.Errorf("unknown export format %q (want csv or xlsx)", s)
}

// ContentType returns the media type of the format's output.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return XLSXContentType
	}
	return ContentType
}

// Ext is the file extension, without the dot.
func (f Format) Ext() string {
	if f == FormatXLSX {
		return "xlsx"
	}
	return "csv"
}

// Write encodes records to w in format f.
func Write(w io.Writer, f Format, records []model.Record) error {
	if f == FormatXLSX {
		return WriteXLSX(w, records)
	}
	return WriteCSV(w, records)
}
