package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// CSVContentType is served for every CSV download.
	CSVContentType = "text/csv; charset=utf-8"

	utf8BOM       = "\ufeff"
	csvSeparator  = ';'
	csvDateLayout = "02/01/2006"
)

// WriteCSV writes the table semicolon separated, amounts with a decimal comma
// and dates as dd/mm/yyyy. No byte order mark is written.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	writer.Comma = csvSeparator
	defer writer.Flush()

	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("tabular: row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
		for j, cell := range row {
			record[j] = csvCell(cell)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSV renders the complete file, prefixed with a UTF-8 BOM so spreadsheet
// software detects the charset.
func CSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFilename returns the download name of the table.
func CSVFilename(t Table) string {
	return t.Name + ".csv"
}

func csvCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return strings.Replace(val.String(), ".", ",", 1)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(csvDateLayout)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
